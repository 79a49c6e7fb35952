package shared

import (
	"errors"
	"fmt"
)

// Error codes shared across bounded contexts
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeOptimisticLockFailed = "OPTIMISTIC_LOCK_FAILED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so that errors.Is(err, ErrNotFound)
// holds for any NOT_FOUND error regardless of its message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInvalidRequestError creates an INVALID_REQUEST error with a specific message
func NewInvalidRequestError(message string) *DomainError {
	return NewDomainError(CodeInvalidRequest, message)
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// NewStorageUnavailableError wraps an infrastructure failure
func NewStorageUnavailableError(cause error) *DomainError {
	return &DomainError{
		Code:    CodeStorageUnavailable,
		Message: "Storage is unavailable",
		Cause:   cause,
	}
}

// AsDomainError extracts a DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidRequest       = NewDomainError(CodeInvalidRequest, "Invalid request")
	ErrUnauthorized         = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden            = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInsufficientStock    = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrStorageUnavailable   = NewDomainError(CodeStorageUnavailable, "Storage is unavailable")
	ErrOptimisticLockFailed = NewDomainError(CodeOptimisticLockFailed, "Resource was modified by another process")
)
