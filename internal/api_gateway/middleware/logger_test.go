package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tienda-register-ledger/internal/platform/metrics"
)

func newTestMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	return metrics.NewWithRegistry(reg, reg)
}

func newLogRouter(logBuffer *bytes.Buffer, m *metrics.Metrics) *gin.Engine {
	testLogger := slog.New(slog.NewJSONHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelInfo}))

	router := gin.New()
	router.Use(CorrelationID())
	router.Use(Logger(testLogger, m, "/health"))
	router.GET("/api/v1/sales", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.POST("/api/v1/debts/:id/payments", func(c *gin.Context) {
		c.String(http.StatusUnprocessableEntity, "refused")
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return router
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("LogsRouteTemplateAndCounts", func(t *testing.T) {
		var logBuffer bytes.Buffer
		m := newTestMetrics()
		router := newLogRouter(&logBuffer, m)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sales?page=2", nil)
		testCorrelationID := uuid.New().String()
		req.Header.Set(CorrelationIDHeader, testCorrelationID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"component":"http"`)
		assert.Contains(t, logOutput, `"route":"/api/v1/sales"`)
		assert.Contains(t, logOutput, `"query":"page=2"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/sales", "200")))
	})

	t.Run("RefusedRequestLogsWarnUnderTemplate", func(t *testing.T) {
		var logBuffer bytes.Buffer
		m := newTestMetrics()
		router := newLogRouter(&logBuffer, m)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/debts/7/payments", strings.NewReader("{}"))
		router.ServeHTTP(httptest.NewRecorder(), req)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"WARN"`)
		assert.Contains(t, logOutput, `"route":"/api/v1/debts/:id/payments"`)
		assert.Contains(t, logOutput, `"path":"/api/v1/debts/7/payments"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/debts/:id/payments", "422")))
	})

	t.Run("UnmatchedPathHasBoundedLabel", func(t *testing.T) {
		var logBuffer bytes.Buffer
		m := newTestMetrics()
		router := newLogRouter(&logBuffer, m)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/nothing/here", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, logBuffer.String(), `"route":"unmatched"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
	})

	t.Run("SkippedPathIsNotLogged", func(t *testing.T) {
		var logBuffer bytes.Buffer
		m := newTestMetrics()
		router := newLogRouter(&logBuffer, m)

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, logBuffer.String())
		assert.Equal(t, 0, testutil.CollectAndCount(m.HTTPRequests))
	})

	t.Run("NilMetrics", func(t *testing.T) {
		var logBuffer bytes.Buffer
		router := newLogRouter(&logBuffer, nil)

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/sales", nil)
		rr := httptest.NewRecorder()
		assert.NotPanics(t, func() { router.ServeHTTP(rr, req) })
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
