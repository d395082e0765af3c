package pollable

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/observability"
	"github.com/kbukum/payclient/resilience"
)

// MinInterval is the floor applied to every wait between two fetches.
const MinInterval = time.Second

// Options configures a polling loop.
type Options struct {
	// Policy decides whether to fetch again and how long to wait.
	// Defaults to DefaultPolicy.
	Policy resilience.Policy

	// MinInterval overrides the wait floor. Zero means MinInterval.
	MinInterval time.Duration

	// Logger receives one debug line per wait. Optional.
	Logger *logger.Logger

	// Metrics records the outcome of each loop. Optional.
	Metrics *observability.Metrics

	// Tracer wraps each loop in a span. Nil uses the global provider.
	Tracer trace.Tracer
}

// DefaultPolicy backs off exponentially from 1s to 30s and gives up once
// the waits would exceed five minutes in total.
func DefaultPolicy() resilience.Policy {
	return resilience.NewExponentialBackoffWithTotalDuration(time.Second, 30*time.Second, 5*time.Minute)
}

// DefaultOptions returns Options with DefaultPolicy.
func DefaultOptions() Options {
	return Options{Policy: DefaultPolicy()}
}

func (o *Options) applyDefaults() {
	if o.Policy == nil {
		o.Policy = DefaultPolicy()
	}
	if o.MinInterval <= 0 {
		o.MinInterval = MinInterval
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
}

// Fetcher returns the current snapshot of a remote resource.
type Fetcher[S any] func(ctx context.Context) (S, error)

// Resource is a remote resource that moves through server-side states.
type Resource[S any] interface {
	// PollOnce fetches the current state.
	PollOnce(ctx context.Context) (S, error)
	// IsInTerminalState reports whether no further transition is expected.
	IsInTerminalState(state S) bool
}

// Until fetches until pred holds and returns the matching snapshot.
//
// A fetch error is returned as is. When the policy stops first, Until
// returns a *errors.TimeoutError carrying the number of fetches. Waits
// are at least MinInterval long and end early when ctx is done.
func Until[S any](ctx context.Context, fetch Fetcher[S], pred func(S) bool, opts Options) (S, error) {
	opts.applyDefaults()

	ctx, span := startSpan(ctx, opts.Tracer)
	defer span.End()
	log := opts.Logger.WithContext(ctx).WithComponent("poll")

	attempts := 0
	finish := func(outcome string, err error) {
		span.SetAttributes(attribute.Int(observability.AttrPollAttempts, attempts))
		if err != nil {
			observability.SetSpanError(ctx, err, outcome)
		}
		if opts.Metrics != nil {
			opts.Metrics.RecordPoll(ctx, outcome, attempts)
		}
	}

	var zero S
	for {
		state, err := fetch(ctx)
		attempts++
		if err != nil {
			finish(clienterrors.KindOf(err).String(), err)
			return zero, err
		}
		if pred(state) {
			finish("ok", nil)
			return state, nil
		}

		decision := opts.Policy.ShouldRetry(attempts - 1)
		if !decision.Retry {
			err := &clienterrors.TimeoutError{Attempts: attempts}
			finish("timeout", err)
			return zero, err
		}

		wait := max(decision.After, opts.MinInterval)
		log.Debug("resource not ready", logger.Fields(logger.FieldAttempt, attempts, "wait_ms", wait.Milliseconds()))

		if err := resilience.Sleep(ctx, wait); err != nil {
			finish("canceled", err)
			return zero, err
		}
	}
}

func startSpan(ctx context.Context, tracer trace.Tracer) (context.Context, trace.Span) {
	if tracer == nil {
		return observability.StartSpan(ctx, observability.SpanPoll)
	}
	return tracer.Start(ctx, observability.SpanPoll)
}

// UntilTerminalState fetches r until it reaches a terminal state.
func UntilTerminalState[S any](ctx context.Context, r Resource[S], opts Options) (S, error) {
	return Until(ctx, r.PollOnce, r.IsInTerminalState, opts)
}
