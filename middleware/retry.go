package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/resilience"
	"github.com/kbukum/payclient/signing"
)

// RetryIdempotent retries idempotent requests that failed transiently.
//
// A request is idempotent when its method is GET, HEAD, OPTIONS, TRACE,
// PUT or DELETE, or when it is a POST or PATCH carrying a non-empty
// Idempotency-Key header. A failure is transient when it is a transport
// error or a 408, 429 or 5xx response. Streaming requests are sent once.
//
// Every attempt works on its own clone of the request, so middlewares
// further down the chain start from the caller's request each time. When retries
// are exhausted on a transient status, the last response is returned
// as-is for the error-handling middleware to normalize.
type RetryIdempotent struct {
	policy  resilience.Policy
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewRetryIdempotent returns a retry middleware driven by policy.
func NewRetryIdempotent(policy resilience.Policy, log *logger.Logger, metrics *observability.Metrics) *RetryIdempotent {
	if policy == nil {
		policy = resilience.DefaultBackoff()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RetryIdempotent{policy: policy, log: log, metrics: metrics}
}

// transientStatusError marks a response worth another attempt.
type transientStatusError struct {
	status int
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("transient status %d", e.status)
}

// Handle implements Middleware.
func (r *RetryIdempotent) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	if !IsIdempotent(req) {
		return next.Run(ctx, req)
	}

	cfg := resilience.RetryConfig{
		Policy:  r.policy,
		RetryIf: isTransient,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			r.log.WithContext(ctx).Debug("retrying request", logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldPath, req.URLPath(),
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
				"backoff_ms", backoff.Milliseconds(),
			))
			if r.metrics != nil {
				r.metrics.RecordRetry(ctx, req.Method)
			}
		},
	}

	resp, err := resilience.Retry(ctx, cfg, func() (*httpclient.Response, error) {
		resp, err := next.Run(ctx, req.Clone())
		if err != nil {
			return nil, err
		}
		if clienterrors.IsTransientStatus(resp.StatusCode) {
			return resp, &transientStatusError{status: resp.StatusCode}
		}
		return resp, nil
	})

	var statusErr *transientStatusError
	if errors.As(err, &statusErr) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// IsIdempotent reports whether req may be sent more than once.
func IsIdempotent(req *httpclient.Request) bool {
	if req.IsStreaming() {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	case http.MethodPost, http.MethodPatch:
		return req.Header.Get(signing.HeaderIdempotencyKey) != ""
	default:
		return false
	}
}

func isTransient(err error) bool {
	var statusErr *transientStatusError
	if errors.As(err, &statusErr) {
		return true
	}
	return clienterrors.IsTransient(err)
}
