// Package pkg provides shared types and utilities for the SnipSnap API.
package pkg

// Response represents a standard API response.
type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// NewResponse creates a new Response with the given code, data, and message.
func NewResponse(code int, data any, message string) Response {
	return Response{Code: code, Data: data, Message: message}
}

// ErrorResponse is the envelope every handler uses for failures.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewError builds an ErrorResponse. details may be empty.
func NewError(code, message, details string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}}
}
