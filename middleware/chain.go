package middleware

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/resilience"
	"github.com/kbukum/payclient/signing"
)

// Options selects and configures the middlewares of a standard chain.
type Options struct {
	// UserAgent overrides the User-Agent value. Defaults to version.UserAgent.
	UserAgent string
	// Logger receives request logs. Defaults to a no-op logger.
	Logger *logger.Logger
	// Tracer creates request spans. Defaults to the global provider.
	Tracer trace.Tracer
	// Metrics records request measurements when set.
	Metrics *observability.Metrics
	// RetryPolicy drives RetryIdempotent. Defaults to resilience.DefaultBackoff.
	RetryPolicy resilience.Policy
	// DisableRetry removes RetryIdempotent from the chain.
	DisableRetry bool
	// Tokens enables Authentication when set.
	Tokens TokenProvider
	// Signer enables Signing when set.
	Signer *signing.Signer

	// Breaker enables CircuitBreaking when set.
	Breaker *resilience.CircuitBreaker
	// Limiter enables RateLimiting when set.
	Limiter *resilience.RateLimiter
	// Bulkhead enables ConcurrencyLimit when set.
	Bulkhead *resilience.Bulkhead
}

// NewAPIChain builds the chain used for API calls:
//
//	UserAgent → Tracing → Logging → ErrorHandling → [CircuitBreaking] → RetryIdempotent →
//	[RateLimiting] → [ConcurrencyLimit] → Authentication → Signing → final
//
// Bracketed layers, Authentication and Signing are left out when their
// option is nil.
func NewAPIChain(final Handler, opts Options) *Chain {
	mws := baseMiddlewares(opts)
	if opts.Tokens != nil {
		mws = append(mws, NewAuthentication(opts.Tokens))
	}
	if opts.Signer != nil {
		mws = append(mws, NewSigning(opts.Signer))
	}
	return NewChain(final, mws...)
}

// NewAuthChain builds the chain the credential manager uses to reach the
// token endpoint. It never authenticates or signs, and the guards of the
// API chain do not apply to it.
func NewAuthChain(final Handler, opts Options) *Chain {
	opts.Breaker, opts.Limiter, opts.Bulkhead = nil, nil, nil
	return NewChain(final, baseMiddlewares(opts)...)
}

func baseMiddlewares(opts Options) []Middleware {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	ua := NewUserAgent()
	if opts.UserAgent != "" {
		ua.Value = opts.UserAgent
	}

	mws := []Middleware{
		ua,
		NewTracing(opts.Tracer, opts.Metrics),
		NewLogging(log),
		ErrorHandling{},
	}
	if opts.Breaker != nil {
		mws = append(mws, NewCircuitBreaking(opts.Breaker))
	}
	if !opts.DisableRetry {
		mws = append(mws, NewRetryIdempotent(opts.RetryPolicy, log, opts.Metrics))
	}
	if opts.Limiter != nil {
		mws = append(mws, NewRateLimiting(opts.Limiter))
	}
	if opts.Bulkhead != nil {
		mws = append(mws, NewConcurrencyLimit(opts.Bulkhead))
	}
	return mws
}
