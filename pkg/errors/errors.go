// Package errors defines the typed failure returned by the remote client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a remote failure
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	// ErrorTypeAPI is a well-formed response whose payload reports failure.
	ErrorTypeAPI     ErrorType = "api"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a remote client error. Code is the HTTP status (0 when no response
// arrived) and Body the raw response text.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given type.
func New(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// Wrap builds a network-level Error around cause.
func Wrap(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: fmt.Sprintf("%s: %v", message, cause), Err: cause}
}

// FromStatus classifies a non-success HTTP response.
func FromStatus(code int, body string) *Error {
	e := &Error{Code: code, Body: body, Message: http.StatusText(code)}
	switch {
	case code == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Type = ErrorTypeAuth
	case code == http.StatusNotFound:
		e.Type = ErrorTypeNotFound
	case code >= 500:
		e.Type = ErrorTypeServerError
	case code >= 400:
		e.Type = ErrorTypeAPI
	default:
		e.Type = ErrorTypeUnknown
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status %d", code)
	}
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err carries an *Error of type t.
func IsType(err error, t ErrorType) bool {
	e, ok := As(err)
	return ok && e.Type == t
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0, http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}
