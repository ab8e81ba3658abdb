// Package http serves the tool registry, the categories resource and the
// MCP endpoint over HTTP.
//
// This file implements a small builder for JSON responses so every handler
// writes status, headers and body the same way.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Body sets a value to be JSON-encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// RawBody sets pre-encoded JSON as the response body. It is written as-is,
// without the trailing newline added to encoded bodies.
func (b *JSONResponseBuilder) RawBody(raw []byte) *JSONResponseBuilder {
	b.raw = raw
	b.body = nil
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	payload := b.raw
	if payload == nil && b.body != nil {
		encoded, err := json.Marshal(b.body)
		if err != nil {
			slog.Error("Failed to encode response body", "error", err)
			b.statusCode = http.StatusInternalServerError
			encoded = []byte(`{"status":"error","message":"failed to encode response"}`)
		}
		payload = append(encoded, '\n')
	}

	if payload != nil {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(b.statusCode)
	if payload != nil {
		_, _ = w.Write(payload)
	}
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse creates a standard {"status":"error","message":...} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Status: "error", Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// TooManyRequestsError creates a 429 Too Many Requests error response.
func TooManyRequestsError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}
