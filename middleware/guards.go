package middleware

import (
	"context"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/resilience"
)

// CircuitBreaking fails fast while the API keeps failing. It sits above
// the retry loop, so one logical call counts once however many attempts
// it took.
type CircuitBreaking struct {
	breaker *resilience.CircuitBreaker
}

// NewCircuitBreaking wraps breaker. Results are classified with
// IsBreakerFailure regardless of the breaker's own IsFailure.
func NewCircuitBreaking(breaker *resilience.CircuitBreaker) *CircuitBreaking {
	return &CircuitBreaking{breaker: breaker}
}

// Handle implements Middleware.
func (c *CircuitBreaking) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, clienterrors.WrapOther("circuit "+c.breaker.Name()+" is open", err)
	}

	resp, err := next.Run(ctx, req)
	if IsBreakerFailure(resp, err) {
		c.breaker.Record(errBreakerFailure)
	} else {
		c.breaker.Record(nil)
	}
	return resp, err
}

var errBreakerFailure = clienterrors.Otherf("request failed")

// IsBreakerFailure reports whether a result says the API is unhealthy,
// either a transport failure or a transient status. Caller mistakes such
// as 4xx responses do not count.
func IsBreakerFailure(resp *httpclient.Response, err error) bool {
	if err != nil {
		return clienterrors.IsTransient(err)
	}
	return resp != nil && clienterrors.IsTransientStatus(resp.StatusCode)
}

// RateLimiting paces attempts through a shared token bucket.
type RateLimiting struct {
	limiter *resilience.RateLimiter
}

// NewRateLimiting wraps limiter.
func NewRateLimiting(limiter *resilience.RateLimiter) *RateLimiting {
	return &RateLimiting{limiter: limiter}
}

// Handle implements Middleware.
func (r *RateLimiting) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, clienterrors.WrapOther("rate limit wait", err)
	}
	return next.Run(ctx, req)
}

// ConcurrencyLimit caps in-flight attempts.
type ConcurrencyLimit struct {
	bulkhead *resilience.Bulkhead
}

// NewConcurrencyLimit wraps bulkhead.
func NewConcurrencyLimit(bulkhead *resilience.Bulkhead) *ConcurrencyLimit {
	return &ConcurrencyLimit{bulkhead: bulkhead}
}

// Handle implements Middleware.
func (l *ConcurrencyLimit) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	release, err := l.bulkhead.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, clienterrors.WrapOther("concurrency slot wait", err)
		}
		return nil, clienterrors.WrapOther("too many concurrent requests", err)
	}
	defer release()
	return next.Run(ctx, req)
}
