package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/logger"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

// panicBody mirrors the API error envelope so clients see one error shape
type panicBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Recovery turns a handler panic into a 500 in the API error envelope, logs
// the stack with the route and correlation id and counts it. A panic after the
// response was started only aborts the chain.
func Recovery(log *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	log = logger.Component(log, "http")
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			route := routeOf(c)
			correlationID := GetCorrelationID(c)
			m.ObservePanic(route)
			m.ObserveRequest(c.Request.Method, route, http.StatusInternalServerError)

			log.Error("Panic recovered",
				"error", r,
				"stack", string(debug.Stack()),
				"route", route,
				"method", c.Request.Method,
				"correlation_id", correlationID,
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			var body panicBody
			body.Error.Code = "INTERNAL_SERVER_ERROR"
			body.Error.Message = "An internal server error occurred"
			body.CorrelationID = correlationID
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
