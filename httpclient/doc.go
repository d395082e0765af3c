// Package httpclient is the base transport of payclient: it turns a
// Request into exactly one physical HTTP exchange and returns the raw
// Response, or a *errors.TransportError when the exchange itself fails.
//
// Requests carry either a materialized Body or a streaming Stream, and
// remember which headers are sensitive so that logging and tracing can
// redact them.
//
// # Basic Usage
//
//	c, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 30 * time.Second,
//	})
//
//	req := httpclient.NewRequest(http.MethodGet, "/payments/123")
//	resp, err := c.Do(ctx, req)
//
// Retry, authentication, signing and error normalization are layered on
// top by the middleware package.
package httpclient
