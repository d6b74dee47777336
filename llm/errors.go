package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies provider failures.
type ErrorType string

const (
	ErrorTypeUnknown        ErrorType = "unknown"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypePermission     ErrorType = "permission_error"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeRateLimit      ErrorType = "rate_limit_exceeded"
	ErrorTypeContextLength  ErrorType = "context_length_exceeded"
	ErrorTypeContentFilter  ErrorType = "content_filter"
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeConnection     ErrorType = "connection_error"
)

// Error is a normalized provider error. Adapters re-label whatever the
// wrapped SDK raised into this shape; the original error stays reachable
// through Unwrap.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitempty"`
	Provider   Provider  `json:"provider"`
	HTTPStatus int       `json:"http_status,omitempty"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, from rate-limit responses
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the failure is worth retrying.
func (e *Error) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	}
	return false
}

// NewError creates a normalized provider error.
func NewError(provider Provider, errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message, Provider: provider}
}

// WrapError creates a normalized provider error keeping the cause.
func WrapError(provider Provider, errorType ErrorType, message string, cause error) *Error {
	err := NewError(provider, errorType, message)
	err.Cause = cause
	return err
}

// FromHTTPStatus maps an HTTP status code to a normalized error, refining the
// type from the response body when it carries a recognizable pattern.
func FromHTTPStatus(provider Provider, statusCode int, body string) *Error {
	var errorType ErrorType
	var message string

	switch statusCode {
	case http.StatusBadRequest:
		errorType, message = ErrorTypeInvalidRequest, "invalid request parameters"
	case http.StatusUnauthorized:
		errorType, message = ErrorTypeAuthentication, "invalid API key or authentication failed"
	case http.StatusForbidden:
		errorType, message = ErrorTypePermission, "permission denied"
	case http.StatusNotFound:
		errorType, message = ErrorTypeNotFound, "resource not found"
	case http.StatusTooManyRequests:
		errorType, message = ErrorTypeRateLimit, "rate limit exceeded"
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		errorType, message = ErrorTypeServerError, "server error"
	default:
		errorType, message = ErrorTypeUnknown, fmt.Sprintf("HTTP %d error", statusCode)
	}

	if refined, ok := refineFromBody(body); ok {
		errorType = refined
	}
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, truncate(body, 200))
	}

	return &Error{
		Type:       errorType,
		Message:    message,
		Provider:   provider,
		HTTPStatus: statusCode,
	}
}

func refineFromBody(body string) (ErrorType, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many requests"):
		return ErrorTypeRateLimit, true
	case strings.Contains(lower, "context length"), strings.Contains(lower, "token limit"):
		return ErrorTypeContextLength, true
	case strings.Contains(lower, "content filter"), strings.Contains(lower, "safety"):
		return ErrorTypeContentFilter, true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AsError extracts a normalized *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable()
	}
	return false
}

// IsRateLimit reports whether err is a rate limit error.
func IsRateLimit(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Type == ErrorTypeRateLimit
	}
	return false
}

// IsAuthentication reports whether err is an authentication error.
func IsAuthentication(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Type == ErrorTypeAuthentication
	}
	return false
}
