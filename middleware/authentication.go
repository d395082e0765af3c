package middleware

import (
	"context"

	"github.com/kbukum/payclient/auth"
	"github.com/kbukum/payclient/httpclient"
)

// TokenProvider supplies access tokens. *auth.Authenticator implements it.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (auth.AuthenticationResult, error)
}

// Authentication adds "Authorization: Bearer <token>" to every request.
// The header is flagged sensitive so logging and tracing redact it.
type Authentication struct {
	tokens TokenProvider
}

// NewAuthentication returns an Authentication middleware.
func NewAuthentication(tokens TokenProvider) *Authentication {
	return &Authentication{tokens: tokens}
}

// Handle implements Middleware.
func (a *Authentication) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	res, err := a.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.SetSensitiveHeader("Authorization", "Bearer "+res.AccessToken.Token.Expose())
	return next.Run(ctx, req)
}
