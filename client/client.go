package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/payclient/auth"
	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
	"github.com/kbukum/payclient/middleware"
	"github.com/kbukum/payclient/payments"
	"github.com/kbukum/payclient/signing"
	"github.com/kbukum/payclient/validation"
)

// Client is the entry point to the payments API. It owns a credential
// manager and the middleware chain every API call goes through.
type Client struct {
	env    Environment
	auth   *auth.Authenticator
	chain  *middleware.Chain
	base   *httpclient.Client
	log    *logger.Logger
	signed bool

	// Payments is the payments resource.
	Payments *payments.API
}

// New builds a client authenticating with grant.
func New(grant auth.Grant, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validation.Validate(o.env); err != nil {
		return nil, clienterrors.WrapOther("client: invalid environment", err)
	}

	signer := o.signer
	if signer == nil && o.signingPEM != nil {
		s, err := signing.NewSigner(o.signingKeyID, o.signingPEM)
		if err != nil {
			return nil, err
		}
		signer = s
	}

	var base *httpclient.Client
	if o.httpClient != nil {
		base = httpclient.NewWithHTTPClient(o.httpClient, o.httpConfig)
	} else {
		b, err := httpclient.New(o.httpConfig)
		if err != nil {
			return nil, clienterrors.WrapOther("client: build transport", err)
		}
		base = b
	}

	log := o.log.WithComponent("client")
	chainOpts := middleware.Options{
		UserAgent:    o.userAgent,
		Logger:       o.log,
		Tracer:       o.tracer,
		Metrics:      o.metrics,
		RetryPolicy:  o.retryPolicy,
		DisableRetry: o.disableRetry,
		Breaker:      o.breaker,
		Limiter:      o.limiter,
		Bulkhead:     o.bulkhead,
	}

	authenticator, err := auth.New(
		middleware.NewAuthChain(base, chainOpts),
		o.env.AuthURL,
		grant,
		auth.WithClock(o.now),
		auth.WithLogger(o.log),
	)
	if err != nil {
		return nil, err
	}

	chainOpts.Tokens = authenticator
	chainOpts.Signer = signer

	c := &Client{
		env:    o.env,
		auth:   authenticator,
		chain:  middleware.NewAPIChain(base, chainOpts),
		base:   base,
		log:    log,
		signed: signer != nil,
	}
	c.Payments = payments.New(c, o.env.HostedPageURL)

	log.Debug("client ready", logger.Fields(
		"environment", o.env.Name,
		"client_id", authenticator.ClientID(),
		"signing", c.signed,
	))
	return c, nil
}

// Environment returns the environment the client talks to.
func (c *Client) Environment() Environment { return c.env }

// Do sends req through the API chain. A relative path is resolved
// against the payments URL.
func (c *Client) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	req = req.Clone()
	req.Path = c.resolve(req.Path)
	return c.chain.Do(ctx, req)
}

// DoJSON sends a request with v encoded as the JSON body and decodes a
// successful response into out. Either may be nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, v, out any) error {
	req := httpclient.NewRequest(method, path)
	if v != nil {
		if err := req.SetJSON(v); err != nil {
			return clienterrors.WrapOther("client: encode body", err)
		}
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.SetHeader(signing.HeaderIdempotencyKey, NewIdempotencyKey())
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := resp.DecodeJSON(out); err != nil {
		return clienterrors.WrapOther("client: decode response", err)
	}
	return nil
}

// AccessToken returns a valid access token, obtaining one when needed.
func (c *Client) AccessToken(ctx context.Context) (auth.AuthenticationResult, error) {
	return c.auth.GetAccessToken(ctx)
}

// Authenticator returns the credential manager.
func (c *Client) Authenticator() *auth.Authenticator { return c.auth }

// Close stops the credential manager and releases idle connections.
func (c *Client) Close() error {
	err := c.auth.Close()
	c.base.Unwrap().CloseIdleConnections()
	return err
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.env.PaymentsURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// NewIdempotencyKey returns a fresh random idempotency key.
func NewIdempotencyKey() string {
	return uuid.NewString()
}
