package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/dto"
)

// BodyLimit caps request bodies at maxBytes; 0 or less turns it off.
// A declared Content-Length over the cap is refused before the handler
// runs. Streamed bodies are cut off while the handler reads them, and
// HandleValidationError answers 413 for the resulting read error.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			rejectTooLarge(c, maxBytes)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// bodyTooLarge returns the limit a body read ran into
func bodyTooLarge(err error) (int64, bool) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge.Limit, true
	}
	return 0, false
}

func rejectTooLarge(c *gin.Context, limit int64) {
	resp := dto.Fail(dto.ErrCodeRequestTooLarge,
		fmt.Sprintf("Request body exceeds the %d byte limit", limit),
		c.GetString(logger.GinRequestIDKey))
	resp.Error.Details = map[string]any{"limit": limit}
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
}
