package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/resilience"
	"github.com/kbukum/payclient/signing"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	env          Environment
	httpConfig   httpclient.Config
	httpClient   *http.Client
	retryPolicy  resilience.Policy
	disableRetry bool
	signer       *signing.Signer
	signingKeyID string
	signingPEM   []byte
	log          *logger.Logger
	now          func() time.Time
	tracer       trace.Tracer
	metrics      *observability.Metrics
	userAgent    string
	breaker      *resilience.CircuitBreaker
	limiter      *resilience.RateLimiter
	bulkhead     *resilience.Bulkhead
}

func defaultOptions() options {
	return options{
		env: Live(),
		log: logger.Nop(),
		now: time.Now,
	}
}

// WithEnvironment selects the service URLs. Defaults to Live.
func WithEnvironment(env Environment) Option {
	return func(o *options) { o.env = env }
}

// WithHTTPConfig configures the base transport.
func WithHTTPConfig(cfg httpclient.Config) Option {
	return func(o *options) { o.httpConfig = cfg }
}

// WithHTTPClient sends requests with hc instead of a transport built
// from the HTTP config.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithRetryPolicy replaces the transient-failure retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(o *options) { o.retryPolicy = p }
}

// WithoutRetry sends every request exactly once.
func WithoutRetry() Option {
	return func(o *options) { o.disableRetry = true }
}

// WithSigningKey signs mutating requests with a PEM encoded EC private
// key. An invalid key makes New fail.
func WithSigningKey(keyID string, privateKeyPEM []byte) Option {
	return func(o *options) {
		o.signingKeyID = keyID
		o.signingPEM = privateKeyPEM
	}
}

// WithSigner signs mutating requests with s.
func WithSigner(s *signing.Signer) Option {
	return func(o *options) { o.signer = s }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock replaces time.Now for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics enables request and retry measurements.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithCircuitBreaker fails API calls fast while the breaker is open. The
// token endpoint is not guarded.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(o *options) { o.breaker = cb }
}

// WithRateLimiter paces every API attempt through rl.
func WithRateLimiter(rl *resilience.RateLimiter) Option {
	return func(o *options) { o.limiter = rl }
}

// WithMaxConcurrency caps in-flight API attempts.
func WithMaxConcurrency(b *resilience.Bulkhead) Option {
	return func(o *options) { o.bulkhead = b }
}
