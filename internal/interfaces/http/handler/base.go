// Package handler implements the gin handlers of the POS HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"github.com/possale/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

var errMissingUserID = errors.New("user ID not found in context")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the ID assigned by the RequestID middleware
func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// getUserID returns the authenticated user's ID from the JWT claims
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userID := middleware.GetJWTUserID(c)
	if userID == "" {
		return uuid.Nil, errMissingUserID
	}
	return uuid.Parse(userID)
}

// parseIDParam parses the :id path parameter. It writes a 400 and returns
// false when the parameter is not a UUID.
func (h *BaseHandler) parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDPath
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// bindJSON decodes the request body into a T. On failure the 400 has
// already been written and ok is false.
func bindJSON[T any](c *gin.Context) (req T, ok bool) {
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return req, false
	}
	return req, true
}

// reply writes data with status, or the error response when err is set
func (h *BaseHandler) reply(c *gin.Context, status int, data any, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(status, dto.OK(data))
}

// Paginated sends a 200 response with pagination meta
func Paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.Page(page))
}

// Error sends an error response with the status derived from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.Fail(code, message, getRequestID(c)))
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeUnauthorized, message)
}

// ValidationError sends a 400 for a request that failed binding
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// DomainError renders a domain error with the status mapped from its code
func (h *BaseHandler) DomainError(c *gin.Context, err *shared.DomainError) {
	status := dto.GetHTTPStatus(err.Code)
	if status >= http.StatusInternalServerError {
		logger.Or(c.Request.Context(), logger.FromGin(c)).Error("Request failed",
			zap.String("code", err.Code),
			zap.Error(err),
		)
	}
	c.JSON(status, dto.FromDomainError(err, getRequestID(c)))
}

// HandleError converts any error returned by a service into a response.
// Errors that are not domain errors become a 500 without leaking details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		h.DomainError(c, stockErr.DomainError())
		return
	}
	if domainErr, ok := shared.AsDomainError(err); ok {
		h.DomainError(c, domainErr)
		return
	}

	logger.Or(c.Request.Context(), logger.FromGin(c)).Error("Unhandled error", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}
