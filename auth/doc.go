// Package auth manages the access token used to call the payments API.
//
// An Authenticator is created from one of three credential grants
// (ClientCredentials, AuthorizationCode, RefreshToken) and exchanges it at
// the authorization server's /connect/token endpoint. The token is cached
// and reused until it is within RefreshMargin of its expiry. When the
// server returns a refresh token the authenticator switches to the
// RefreshToken grant for every later exchange.
//
//	a, err := auth.New(chain, "https://auth.truelayer-sandbox.com", auth.ClientCredentials{
//	    ClientIdentity: auth.ClientIdentity{ClientID: id, ClientSecret: auth.Secret(secret)},
//	    Scope:          "payments",
//	})
//	defer a.Close()
//	res, err := a.GetAccessToken(ctx)
//
// Secrets are typed as Secret, which renders as [REDACTED] everywhere
// except EncodeGrant and Expose.
package auth
