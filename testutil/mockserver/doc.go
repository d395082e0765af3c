// Package mockserver is an in-process payments API for tests.
//
// It serves POST /connect/token, POST /payments and GET /payments/:id.
// Payment creation requires a bearer token issued by the server, an
// Idempotency-Key and, when Config.SigningKey is set, a valid
// Tl-Signature. Every read of a payment advances it one step through
// Config.Statuses. FailNext queues error responses for a route.
//
//	srv := mockserver.New(mockserver.Config{ExpiresIn: time.Hour})
//	testutil.T(t).Setup(srv)
//	c, _ := client.New(grant,
//		client.WithEnvironment(client.SingleURL(srv.URL())),
//		client.WithHTTPClient(srv.Client()),
//	)
package mockserver
