package dto

import "github.com/possale/backend/internal/domain/shared"

// Response is the envelope of every JSON answer:
//
//	{"success": true, "data": ..., "meta": {...}}
//	{"success": false, "error": {"code": "INSUFFICIENT_STOCK", ...}}
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the error half of the envelope. Details carries domain error
// context such as the short product, Fields the rejected request fields.
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   map[string]any     `json:"details,omitempty"`
	Fields    []ValidationDetail `json:"fields,omitempty"`
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta describes one page of a list
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// OK wraps data in a success envelope
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Page wraps one page of items. An empty page encodes as [], not null.
func Page[T any](p shared.Paginated[T]) Response {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: p.Total, Page: p.Page, PageSize: p.PageSize, TotalPages: p.TotalPages},
	}
}

// Fail builds an error envelope
func Fail(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// FromDomainError renders err's code, message and details. Its cause stays
// in the logs.
func FromDomainError(err *shared.DomainError, requestID string) Response {
	resp := Fail(err.Code, err.Message, requestID)
	if len(err.Details) > 0 {
		resp.Error.Details = err.Details
	}
	return resp
}

// Invalid is an INVALID_REQUEST envelope listing the rejected fields
func Invalid(message, requestID string, fields []ValidationDetail) Response {
	resp := Fail(ErrCodeInvalidRequest, message, requestID)
	resp.Error.Fields = fields
	return resp
}
