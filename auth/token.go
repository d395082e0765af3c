package auth

import "time"

// RefreshMargin is how long before expiry a cached token stops being reused.
const RefreshMargin = 10 * time.Minute

// AccessToken is a bearer token and its absolute expiry. A zero ExpiresAt
// means the token never expires.
type AccessToken struct {
	Token     Secret
	ExpiresAt time.Time
}

// Expires reports whether the token carries an expiry.
func (t AccessToken) Expires() bool { return !t.ExpiresAt.IsZero() }

// NeedsRefresh reports whether now falls within RefreshMargin of expiry.
func (t AccessToken) NeedsRefresh(now time.Time) bool {
	if !t.Expires() {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-RefreshMargin))
}

// AuthenticationResult is an access token plus the refresh token that will
// be used for the next refresh, if any.
type AuthenticationResult struct {
	AccessToken  AccessToken
	RefreshToken Secret
}

// HasRefreshToken reports whether a refresh token is present.
func (r AuthenticationResult) HasRefreshToken() bool { return !r.RefreshToken.IsZero() }

// tokenResponse is the token endpoint's success body.
type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    *int64 `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
