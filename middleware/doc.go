// Package middleware composes the layers every outgoing request passes
// through before it reaches the base transport.
//
// A Chain is an ordered list of Middleware in front of a final Handler.
// Each middleware receives the request and a Next continuation; calling
// next.Run hands the request to the rest of the chain.
//
// The standard API chain, outermost first:
//
//	UserAgent       sets "User-Agent: payclient/<version>"
//	Tracing         one client span and one measurement per logical request
//	Logging         method, path, status, duration; sensitive headers redacted
//	ErrorHandling   non-2xx responses become *errors.APIError
//	RetryIdempotent retries transient failures of idempotent requests
//	Authentication  "Authorization: Bearer <token>" from a TokenProvider
//	Signing         Tl-Signature on POST, PUT, PATCH and DELETE
//
// Because Authentication and Signing sit inside RetryIdempotent, every
// physical attempt gets a fresh token lookup and a fresh signature.
//
// Options can add guards to the API chain: CircuitBreaking just above
// RetryIdempotent, RateLimiting and ConcurrencyLimit just below it.
package middleware
