package errors

import (
	"context"
	stderrors "errors"
)

// Kind classifies an error into the payclient taxonomy.
type Kind int

const (
	// KindOther is any error outside the other kinds, including nil-safe unknowns.
	KindOther Kind = iota
	// KindTransport indicates a connection or I/O failure.
	KindTransport
	// KindAPI indicates a normalized non-2xx response.
	KindAPI
	// KindSigning indicates a request could not be signed.
	KindSigning
	// KindTimeout indicates polling gave up before its condition held.
	KindTimeout
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindSigning:
		return "signing"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// KindOf returns the kind of err. It returns KindOther for nil.
func KindOf(err error) Kind {
	var (
		transportErr *TransportError
		apiErr       *APIError
		signingErr   *SigningError
		timeoutErr   *TimeoutError
	)
	switch {
	case err == nil:
		return KindOther
	case stderrors.As(err, &signingErr):
		return KindSigning
	case stderrors.As(err, &apiErr):
		return KindAPI
	case stderrors.As(err, &timeoutErr):
		return KindTimeout
	case stderrors.As(err, &transportErr):
		return KindTransport
	default:
		return KindOther
	}
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool { return KindOf(err) == KindTransport }

// IsAPI reports whether err is an APIError.
func IsAPI(err error) bool { return KindOf(err) == KindAPI }

// IsSigning reports whether err is a SigningError.
func IsSigning(err error) bool { return KindOf(err) == KindSigning }

// IsTimeout reports whether err is a polling TimeoutError.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// AsAPIError extracts the APIError from err if present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransientStatus reports whether an HTTP status is worth retrying:
// 408, 429 and every 5xx.
func IsTransientStatus(status int) bool {
	return status == 408 || status == 429 || status >= 500
}

// IsTransient reports whether err is a failure a retry may cure. Only
// transport errors and API errors with a transient status qualify;
// caller cancellation never does.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindTransport:
		return true
	case KindAPI:
		apiErr, _ := AsAPIError(err)
		return IsTransientStatus(apiErr.Status)
	default:
		return false
	}
}
