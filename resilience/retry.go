package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Policy decides whether and when to try again. Defaults to DefaultBackoff.
	Policy Policy
	// RetryIf determines if an error should be retried. Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry executes fn until it succeeds, RetryIf rejects its error, or the
// policy stops. It returns the last result and error; the result is
// returned even on failure so callers can inspect the final attempt.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	if cfg.Policy == nil {
		cfg.Policy = DefaultBackoff()
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	for attempt := 0; ; attempt++ {
		// Check context before each attempt
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}

		result, err := fn()
		if err == nil || !cfg.RetryIf(err) {
			return result, err
		}

		decision := cfg.Policy.ShouldRetry(attempt)
		if !decision.Retry {
			return result, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, decision.After)
		}

		if err := Sleep(ctx, decision.After); err != nil {
			return result, err
		}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
