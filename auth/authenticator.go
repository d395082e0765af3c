package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/logger"
)

// TokenPath is the token endpoint, relative to the auth URL.
const TokenPath = "/connect/token"

// ErrClosed is returned by GetAccessToken once the authenticator is closed.
var ErrClosed = clienterrors.Otherf("auth: authenticator closed")

// Doer sends a token request. The auth chain built by the middleware
// package satisfies it, as does *httpclient.Client.
type Doer interface {
	Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithLogger sets the logger used for token lifecycle events.
func WithLogger(l *logger.Logger) Option {
	return func(a *Authenticator) { a.log = l.WithComponent("auth") }
}

// Authenticator owns a credential grant and the access token obtained
// with it. A single goroutine holds that state; GetAccessToken talks to it
// over a channel, so concurrent callers that need a new token share one
// token request.
type Authenticator struct {
	doer     Doer
	tokenURL string
	clientID string
	now      func() time.Time
	log      *logger.Logger

	requests  chan chan<- result
	done      <-chan struct{}
	stopped   chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
}

type result struct {
	res AuthenticationResult
	err error
}

type exchangeOutcome struct {
	token   AccessToken
	refresh Secret
	err     error
}

// New validates grant and starts the authenticator. authURL is the base
// URL of the authorization server.
func New(doer Doer, authURL string, grant Grant, opts ...Option) (*Authenticator, error) {
	if err := ValidateGrant(grant); err != nil {
		return nil, err
	}
	if doer == nil {
		return nil, clienterrors.Otherf("auth: doer is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Authenticator{
		doer:     doer,
		tokenURL: strings.TrimRight(authURL, "/") + TokenPath,
		clientID: grant.Identity().ClientID,
		now:      time.Now,
		log:      logger.Nop(),
		requests: make(chan chan<- result),
		done:     ctx.Done(),
		stopped:  make(chan struct{}),
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(a)
	}

	go a.loop(ctx, grant)
	return a, nil
}

// ClientID returns the client id of the configured grant.
func (a *Authenticator) ClientID() string { return a.clientID }

// GetAccessToken returns the cached access token, or obtains a new one
// when there is none or it is within RefreshMargin of expiry. If the
// server returns a refresh token, later refreshes use it.
//
// Abandoning the call through ctx does not cancel a token request other
// callers are waiting on.
func (a *Authenticator) GetAccessToken(ctx context.Context) (AuthenticationResult, error) {
	reply := make(chan result, 1)

	select {
	case a.requests <- reply:
	case <-a.done:
		return AuthenticationResult{}, ErrClosed
	case <-ctx.Done():
		return AuthenticationResult{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.res, r.err
	case <-ctx.Done():
		return AuthenticationResult{}, ctx.Err()
	}
}

// Close stops the authenticator. Callers waiting for a token, and every
// later caller, receive ErrClosed.
func (a *Authenticator) Close() error {
	a.closeOnce.Do(func() {
		a.cancel()
		<-a.stopped
	})
	return nil
}

func (a *Authenticator) loop(ctx context.Context, grant Grant) {
	defer close(a.stopped)

	var (
		cached   *AccessToken
		pending  []chan<- result
		outcomes chan exchangeOutcome // nil unless a token request is in flight
	)

	for {
		select {
		case <-ctx.Done():
			for _, reply := range pending {
				reply <- result{err: ErrClosed}
			}
			return

		case reply := <-a.requests:
			if outcomes == nil && cached != nil && !cached.NeedsRefresh(a.now()) {
				a.log.Debug("reusing access token")
				refresh, _ := grant.RefreshTokenValue()
				reply <- result{res: AuthenticationResult{AccessToken: *cached, RefreshToken: refresh}}
				continue
			}
			pending = append(pending, reply)
			if outcomes == nil {
				outcomes = make(chan exchangeOutcome, 1)
				go a.exchange(ctx, grant, outcomes)
			}

		case out := <-outcomes:
			outcomes = nil

			var r result
			if out.err != nil {
				a.log.Warn("token request failed", logger.ErrorFields("token", out.err))
				r.err = out.err
			} else {
				cached = &out.token
				a.log.Info("obtained new access token", logger.Fields(
					logger.FieldGrantType, string(grant.GrantType()),
					"expires_at", out.token.ExpiresAt,
				))
				if !out.refresh.IsZero() {
					grant = rotate(grant, out.refresh)
					a.log.Info("switching to refresh token grant for subsequent requests")
				}
				r.res = AuthenticationResult{AccessToken: out.token, RefreshToken: out.refresh}
			}

			for _, reply := range pending {
				reply <- r
			}
			pending = nil
		}
	}
}

// exchange performs one token request with a snapshot of the grant.
func (a *Authenticator) exchange(ctx context.Context, grant Grant, out chan<- exchangeOutcome) {
	token, refresh, err := a.requestToken(ctx, grant)
	out <- exchangeOutcome{token: token, refresh: refresh, err: err}
}

func (a *Authenticator) requestToken(ctx context.Context, grant Grant) (AccessToken, Secret, error) {
	body, err := EncodeGrant(grant)
	if err != nil {
		return AccessToken{}, "", err
	}

	req := httpclient.NewRequest(http.MethodPost, a.tokenURL).
		SetBody(body, "application/json").
		SetHeader("Accept", "application/json")

	resp, err := a.doer.Do(ctx, req)
	if err != nil {
		return AccessToken{}, "", err
	}
	if !resp.IsSuccess() {
		return AccessToken{}, "", clienterrors.FromResponse(resp.StatusCode, resp.Status, resp.Header, resp.Body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return AccessToken{}, "", clienterrors.WrapOther("auth: decode token response", err)
	}
	if tr.TokenType != "Bearer" {
		return AccessToken{}, "", clienterrors.Otherf("auth: unsupported access token type %q", tr.TokenType)
	}
	if tr.AccessToken == "" {
		return AccessToken{}, "", clienterrors.Otherf("auth: token response has no access_token")
	}

	token := AccessToken{Token: Secret(tr.AccessToken)}
	if tr.ExpiresIn != nil {
		token.ExpiresAt = a.now().Add(time.Duration(*tr.ExpiresIn) * time.Second)
	}
	return token, Secret(tr.RefreshToken), nil
}
