// Package client wires the transport core into a ready-to-use API client.
//
// New starts a credential manager for the given grant and builds the
// middleware chain:
//
//	UserAgent → Tracing → Logging → ErrorHandling → RetryIdempotent → Authentication → Signing → transport
//
// Token requests use the same chain without Authentication and Signing.
// WithCircuitBreaker, WithRateLimiter and WithMaxConcurrency add guards to
// API calls only.
//
//	c, err := client.New(auth.ClientCredentials{...},
//		client.WithEnvironment(client.Sandbox()),
//		client.WithSigningKey(keyID, pem),
//	)
//	defer c.Close()
//	created, err := c.Payments.Create(ctx, req)
package client
