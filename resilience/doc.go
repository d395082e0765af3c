// Package resilience holds the retry and guard primitives used by the
// request pipeline.
//
//   - Policy and ExponentialBackoff decide whether and when to retry.
//   - Retry runs an operation under a Policy.
//   - CircuitBreaker fails fast while a dependency keeps failing.
//   - RateLimiter paces calls with a token bucket.
//   - Bulkhead caps concurrent calls.
//
// The guards are plain values; the middleware package turns them into
// chain layers:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("payments"))
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 20, Burst: 40})
//	c, err := client.New(grant, client.WithCircuitBreaker(cb), client.WithRateLimiter(rl))
package resilience
