package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/logger"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

// unmatchedRoute labels requests that hit no registered route, keeping the
// route label bounded
const unmatchedRoute = "unmatched"

// Logger writes one access line per request and counts it by route template.
// Server errors log at error level and refused requests at warn. Requests to
// skipPaths, such as health checks and metric scrapes, are passed through untouched.
func Logger(log *slog.Logger, m *metrics.Metrics, skipPaths ...string) gin.HandlerFunc {
	log = logger.Component(log, "http")
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := routeOf(c)
		m.ObserveRequest(c.Request.Method, route, status)

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, "query", q)
		}
		if id := GetCorrelationID(c); id != "" {
			attrs = append(attrs, "correlation_id", id)
		}
		log.Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
