package api_gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tienda-register-ledger/internal/api_gateway/middleware"
	"github.com/tienda-register-ledger/internal/api_gateway/service"
	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

// balancesOnly serves Balances and panics on anything else
type balancesOnly struct {
	service.RegisterService
}

func (balancesOnly) Balances() ledger.Balances {
	return ledger.Balances{Investment: decimal.NewFromInt(100), Payout: decimal.Zero}
}

func testConfig() *config.Config {
	return &config.Config{
		Application: config.ApplicationConfig{Env: "test"},
		Server: config.ServerConfig{
			Port:            8080,
			MetricsPath:     "/metrics",
			ShutdownTimeout: time.Second,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
		},
	}
}

func TestServerRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)
	m.ObserveCommand("settle_sale", metrics.ResultOK, 0.002)

	srv := NewServer(logger, testConfig(), balancesOnly{}, nil, m)

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "register_commands_total")
	})

	t.Run("BalancesCarryCorrelationID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/balances", nil)
		req.Header.Set(middleware.CorrelationIDHeader, "corr-7")
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "corr-7", rr.Header().Get(middleware.CorrelationIDHeader))
		assert.Contains(t, rr.Body.String(), `"correlation_id":"corr-7"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/balances", "200")))
	})

	t.Run("ArchiveRoutesAbsentWithoutStore", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/archive/status", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("PanicIsRecovered", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPPanics.WithLabelValues("/api/v1/settings")))
	})

	t.Run("ScrapesAreNotCounted", func(t *testing.T) {
		srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	})
}
