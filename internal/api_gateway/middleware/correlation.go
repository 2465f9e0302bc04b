package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tienda-register-ledger/internal/domain/shared"
)

const (
	// CorrelationIDHeader is the HTTP header for correlation ID
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey is the key used to store correlation ID in the context
	CorrelationIDKey = "correlation_id"
)

// a caller's id travels into ledger events and the archive, so only short
// token-like ids are accepted
var acceptedCorrelationID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// CorrelationID tags the request with the caller's X-Correlation-ID, or a
// fresh UUID when the header is missing or unusable, and echoes it back. The
// id is also put on the request context so committed ledger events carry it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if !acceptedCorrelationID.MatchString(correlationID) {
			correlationID = uuid.NewString()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(shared.WithCorrelationID(c.Request.Context(), correlationID))

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, looking at the gin
// keys first and then the request context
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(CorrelationIDKey); ok {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	if c.Request != nil {
		return shared.CorrelationID(c.Request.Context())
	}
	return ""
}
