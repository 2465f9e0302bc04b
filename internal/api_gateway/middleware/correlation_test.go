package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tienda-register-ledger/internal/domain/shared"
)

// echoCorrelation returns what a handler behind CorrelationID sees
func echoCorrelation(t *testing.T, header string) (response, ginKey, requestCtx string) {
	t.Helper()
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/api/v1/balances", func(c *gin.Context) {
		ginKey = c.GetString(CorrelationIDKey)
		requestCtx = shared.CorrelationID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/balances", nil)
	if header != "" {
		req.Header.Set(CorrelationIDHeader, header)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Header().Get(CorrelationIDHeader), ginKey, requestCtx
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	accepted := []string{
		uuid.NewString(),
		"till-2:close.2024-06-10",
		strings.Repeat("a", 64),
	}
	for _, id := range accepted {
		t.Run("Keeps "+id[:min(len(id), 16)], func(t *testing.T) {
			response, ginKey, requestCtx := echoCorrelation(t, id)
			assert.Equal(t, id, response)
			assert.Equal(t, id, ginKey)
			assert.Equal(t, id, requestCtx)
		})
	}

	replaced := map[string]string{
		"Missing":     "",
		"TooLong":     strings.Repeat("a", 65),
		"Whitespace":  "sale 42",
		"JSONInjects": `x","amount":"0`,
	}
	for name, header := range replaced {
		t.Run("Replaces"+name, func(t *testing.T) {
			response, ginKey, requestCtx := echoCorrelation(t, header)
			_, err := uuid.Parse(response)
			require.NoError(t, err, "a fresh UUID is issued")
			assert.NotEqual(t, header, response)
			assert.Equal(t, response, ginKey)
			assert.Equal(t, response, requestCtx)
		})
	}
}

func TestGetCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("FromGinKey", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, "corr-1")
		assert.Equal(t, "corr-1", GetCorrelationID(c))
	})

	t.Run("FallsBackToRequestContext", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil).
			WithContext(shared.WithCorrelationID(context.Background(), "corr-2"))
		assert.Equal(t, "corr-2", GetCorrelationID(c))
	})

	t.Run("EmptyWithoutEither", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetCorrelationID(c))
	})

	t.Run("IgnoresNonStringKey", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, 12345)
		assert.Empty(t, GetCorrelationID(c))
	})
}
