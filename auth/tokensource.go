package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the authenticator to oauth2.TokenSource, so that
// oauth2.NewClient can authorize plain net/http requests with the same
// cached token.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, auth: a}
}

type tokenSource struct {
	ctx  context.Context
	auth *Authenticator
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	res, err := s.auth.GetAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  res.AccessToken.Token.Expose(),
		TokenType:    "Bearer",
		RefreshToken: res.RefreshToken.Expose(),
		Expiry:       res.AccessToken.ExpiresAt,
	}, nil
}
