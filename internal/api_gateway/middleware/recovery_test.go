package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("PanicBecomesErrorEnvelope", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelError}))
		m := newTestMetrics()

		router := gin.New()
		router.Use(Recovery(testLogger, m))
		router.Use(CorrelationID())
		router.POST("/api/v1/sales", func(c *gin.Context) {
			panic("nil product")
		})

		testCorrelationID := uuid.New().String()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sales", nil)
		req.Header.Set(CorrelationIDHeader, testCorrelationID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var body panicBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
		assert.Equal(t, "An internal server error occurred", body.Error.Message)
		assert.Equal(t, testCorrelationID, body.CorrelationID)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, `"level":"ERROR"`)
		assert.Contains(t, logOutput, `"msg":"Panic recovered"`)
		assert.Contains(t, logOutput, `"error":"nil product"`)
		assert.Contains(t, logOutput, `"stack":`)
		assert.Contains(t, logOutput, `"route":"/api/v1/sales"`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPPanics.WithLabelValues("/api/v1/sales")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/sales", "500")))
	})

	t.Run("PanicAfterWriteKeepsResponse", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

		router := gin.New()
		router.Use(Recovery(testLogger, nil))
		router.GET("/api/v1/ledger", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("late")
		})

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "partial", rr.Body.String())
		assert.Contains(t, logBuffer.String(), `"msg":"Panic recovered"`)
	})

	t.Run("NoPanicNoEffect", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, nil))
		m := newTestMetrics()

		router := gin.New()
		router.Use(Recovery(testLogger, m))
		router.GET("/no_panic", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		req, _ := http.NewRequest(http.MethodGet, "/no_panic", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, logBuffer.String())
		assert.Equal(t, 0, testutil.CollectAndCount(m.HTTPPanics))
	})
}
