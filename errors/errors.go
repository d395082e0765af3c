// Package errors defines the typed failures surfaced by payclient.
// Every error returned to callers is one of TransportError, APIError,
// SigningError, TimeoutError or OtherError, and can be matched with the
// standard library's errors.As or with KindOf.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// TransportError is a connection or I/O failure talking to the server.
type TransportError struct {
	// Op names the failed step ("send", "read body", ...).
	Op string
	// Timeout is true when the failure was a deadline or client timeout.
	Timeout bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport: %s: timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response normalized from one of the recognized
// error body shapes.
type APIError struct {
	Type    string              `json:"type,omitempty"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	TraceID string              `json:"trace_id,omitempty"`
	Detail  string              `json:"detail,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d: %s", e.Status, e.Title)
	if e.Type != "" {
		fmt.Fprintf(&b, " (%s)", e.Type)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.TraceID != "" {
		fmt.Fprintf(&b, " [trace_id=%s]", e.TraceID)
	}
	if len(e.Errors) > 0 {
		fields := make([]string, 0, len(e.Errors))
		for k := range e.Errors {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Errors[k], ", "))
		}
	}
	return b.String()
}

// SigningError is a failure building a request signature. It is never retried.
type SigningError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing: %s: %v", e.Reason, e.Err)
	}
	return "signing: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *SigningError) Unwrap() error { return e.Err }

// TimeoutError is returned by the polling engine when the backoff policy
// gives up before the awaited condition holds.
type TimeoutError struct {
	// Attempts is the number of fetches performed.
	Attempts int
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("polling timeout after %d attempts", e.Attempts)
}

// OtherError is the catch-all for unexpected conditions.
type OtherError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OtherError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *OtherError) Unwrap() error { return e.Err }

// --- Constructors ---

// NewTransportError wraps a connection-level failure.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// NewTimeoutTransportError wraps a connection-level timeout.
func NewTimeoutTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Timeout: true, Err: err}
}

// NewSigningError creates a signing failure.
func NewSigningError(reason string, err error) *SigningError {
	return &SigningError{Reason: reason, Err: err}
}

// Otherf creates an OtherError with a formatted message.
func Otherf(format string, args ...any) *OtherError {
	return &OtherError{Message: fmt.Sprintf(format, args...)}
}

// WrapOther wraps an unexpected error with a message.
func WrapOther(message string, err error) *OtherError {
	return &OtherError{Message: message, Err: err}
}
