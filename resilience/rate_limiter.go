package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the number of requests allowed per second.
	Rate float64
	// Burst is the bucket size. Defaults to Rate, at least 1.
	Burst int
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// RateLimiter is a token bucket shared by every request of a client.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		rate:       config.Rate,
		burst:      float64(config.Burst),
		now:        config.Now,
		tokens:     float64(config.Burst),
		lastRefill: config.Now(),
	}
}

// Allow takes a token without blocking.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait takes a token, blocking until one is available or ctx is done.
// A cancelled wait gives its reservation back.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	wait := rl.reserve()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		rl.mu.Lock()
		rl.tokens++
		rl.mu.Unlock()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// reserve takes a token, possibly going negative, and returns how long
// the caller must wait before using it.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	rl.tokens--
	if rl.tokens >= 0 {
		return 0
	}
	return time.Duration(-rl.tokens / rl.rate * float64(time.Second))
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	rl.tokens = min(rl.tokens+now.Sub(rl.lastRefill).Seconds()*rl.rate, rl.burst)
	rl.lastRefill = now
}
