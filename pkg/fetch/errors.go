package fetch

import (
	"context"
	"errors"
	"fmt"
)

// AuthError is returned when the dashboard API rejects the current session
// (HTTP 401). The scheduler hands it to the caller's auth policy.
type AuthError struct {
	// Endpoint is the API endpoint that was requested
	Endpoint string

	// Message is the error message
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unauthorized request to %q", e.Endpoint)
	}
	return fmt.Sprintf("unauthorized request to %q: %s", e.Endpoint, e.Message)
}

// TransportError represents a network failure or a non-2xx response.
type TransportError struct {
	// Endpoint is the API endpoint that was requested
	Endpoint string

	// URL is the full request URL
	URL string

	// StatusCode is the HTTP status code (0 for network failures)
	StatusCode int

	// Status is the HTTP status text
	Status string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("Failed to fetch from '%s': %d %s", e.URL, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("Failed to fetch from '%s': %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response body that could not be decoded.
type ParseError struct {
	// Endpoint is the API endpoint that returned the body
	Endpoint string

	// RawResponse is a prefix of the body that failed to parse
	RawResponse string

	// Cause is the underlying decode error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid response from %q: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// CancelledError reports a fetch aborted through its context. The scheduler
// never records it as a failure.
type CancelledError struct {
	// Endpoint is the API endpoint that was requested (may be empty)
	Endpoint string

	// Cause is the context error
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("fetch cancelled: %v", e.Cause)
	}
	return fmt.Sprintf("fetch from %q cancelled: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// IsCancelled reports whether err is a cancellation: a *CancelledError or a
// bare context.Canceled anywhere in the chain. A deadline is not a
// cancellation; it is a transport failure.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	var ce *CancelledError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsAuth reports whether err is an *AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Kind is a low-cardinality error class used as a metrics label.
type Kind string

const (
	KindNone      Kind = "none"
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
	KindParse     Kind = "parse"
	KindCancelled Kind = "cancelled"
	KindPanic     Kind = "panic"
	KindOther     Kind = "other"
)

// PanicError wraps a value recovered from a panicking fetcher.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("fetcher panicked: %v", e.Value)
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if IsCancelled(err) {
		return KindCancelled
	}

	var (
		ae *AuthError
		te *TransportError
		pe *ParseError
		pp *PanicError
	)
	switch {
	case errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &pp):
		return KindPanic
	default:
		return KindOther
	}
}
