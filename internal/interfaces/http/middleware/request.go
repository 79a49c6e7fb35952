package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/infrastructure/logger"
)

const requestIDHeader = "X-Request-ID"

// MaxRequestIDLength caps client supplied request IDs
const MaxRequestIDLength = 128

// RequestID tags the request with an ID, echoed in X-Request-ID and every
// log line and error body. A till may supply its own; oversized ones are
// replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(logger.GinRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Timeout puts a deadline on the request context. Storage calls made by
// the handler observe it; a zero timeout disables it.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Timeout", timeout.String())
		c.Next()
	}
}
