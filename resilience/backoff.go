package resilience

import (
	"math"
	"math/rand"
	"time"
)

// Decision is the outcome of asking a Policy whether to try again.
type Decision struct {
	// Retry is false when the policy gives up.
	Retry bool
	// After is how long to wait before the next attempt.
	After time.Duration
}

// Stop is the decision to give up.
var Stop = Decision{}

// RetryAfter returns a decision to retry after d.
func RetryAfter(d time.Duration) Decision {
	return Decision{Retry: true, After: d}
}

// Policy maps the number of retries performed so far to a decision.
// Implementations must be pure: the same input yields the same kind of
// decision.
type Policy interface {
	ShouldRetry(nPastRetries int) Decision
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(nPastRetries int) Decision

// ShouldRetry implements Policy.
func (f PolicyFunc) ShouldRetry(nPastRetries int) Decision { return f(nPastRetries) }

// MaxRetries wraps a policy so it stops after n retries.
func MaxRetries(n int, p Policy) Policy {
	return PolicyFunc(func(nPastRetries int) Decision {
		if nPastRetries >= n {
			return Stop
		}
		return p.ShouldRetry(nPastRetries)
	})
}

// ExponentialBackoff waits MinInterval * Factor^n between attempts,
// capped at MaxInterval, for at most MaxRetries retries.
type ExponentialBackoff struct {
	// MinInterval is the first wait and the lower bound of every wait.
	MinInterval time.Duration
	// MaxInterval caps each wait.
	MaxInterval time.Duration
	// Factor is the exponential base. Defaults to 2.
	Factor float64
	// Jitter spreads each wait by up to ±Jitter of its value (0.0 to 1.0).
	Jitter float64
	// MaxRetries is the number of retries before stopping.
	MaxRetries int
}

// NewExponentialBackoff returns a backoff between minInterval and
// maxInterval that stops after maxRetries retries.
func NewExponentialBackoff(minInterval, maxInterval time.Duration, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		MinInterval: minInterval,
		MaxInterval: maxInterval,
		Factor:      2.0,
		MaxRetries:  maxRetries,
	}
}

// NewExponentialBackoffWithTotalDuration returns a backoff between
// minInterval and maxInterval whose retry count is the largest one for
// which the sum of waits stays within total.
func NewExponentialBackoffWithTotalDuration(minInterval, maxInterval, total time.Duration) *ExponentialBackoff {
	b := NewExponentialBackoff(minInterval, maxInterval, 0)
	if minInterval <= 0 {
		return b
	}
	var elapsed time.Duration
	for {
		wait := b.interval(b.MaxRetries)
		if elapsed+wait > total {
			break
		}
		elapsed += wait
		b.MaxRetries++
	}
	return b
}

// DefaultBackoff is the client-wide retry policy for transient failures:
// up to 3 retries from 100ms to 5s with 10% jitter.
func DefaultBackoff() *ExponentialBackoff {
	b := NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 3)
	b.Jitter = 0.1
	return b
}

// ShouldRetry implements Policy.
func (b *ExponentialBackoff) ShouldRetry(nPastRetries int) Decision {
	if nPastRetries >= b.MaxRetries {
		return Stop
	}
	wait := b.interval(nPastRetries)
	if b.Jitter > 0 {
		spread := float64(wait) * b.Jitter
		wait += time.Duration((rand.Float64()*2 - 1) * spread)
		if wait < b.MinInterval {
			wait = b.MinInterval
		}
	}
	return RetryAfter(wait)
}

// interval is the un-jittered wait before retry n+1.
func (b *ExponentialBackoff) interval(n int) time.Duration {
	factor := b.Factor
	if factor <= 0 {
		factor = 2.0
	}
	wait := float64(b.MinInterval) * math.Pow(factor, float64(n))
	if b.MaxInterval > 0 && wait > float64(b.MaxInterval) {
		return b.MaxInterval
	}
	if wait < float64(b.MinInterval) {
		return b.MinInterval
	}
	return time.Duration(wait)
}
