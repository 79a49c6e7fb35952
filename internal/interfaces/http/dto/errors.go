package dto

import (
	"net/http"

	"github.com/possale/backend/internal/domain/shared"
)

// Domain error codes, passed through unchanged from shared.DomainError
const (
	ErrCodeInvalidRequest       = shared.CodeInvalidRequest
	ErrCodeNotFound             = shared.CodeNotFound
	ErrCodeAlreadyExists        = shared.CodeAlreadyExists
	ErrCodeInsufficientStock    = shared.CodeInsufficientStock
	ErrCodeStorageUnavailable   = shared.CodeStorageUnavailable
	ErrCodeUnauthorized         = shared.CodeUnauthorized
	ErrCodeForbidden            = shared.CodeForbidden
	ErrCodeOptimisticLockFailed = shared.CodeOptimisticLockFailed
)

// Transport error codes raised by handlers and middleware
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	// ErrCodeTokenRevoked is used when the auth token was blacklisted
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInvalidRequest:       http.StatusBadRequest,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeAlreadyExists:        http.StatusConflict,
	ErrCodeInsufficientStock:    http.StatusUnprocessableEntity,
	ErrCodeStorageUnavailable:   http.StatusServiceUnavailable,
	ErrCodeUnauthorized:         http.StatusUnauthorized,
	ErrCodeForbidden:            http.StatusForbidden,
	ErrCodeOptimisticLockFailed: http.StatusConflict,

	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
