package auth

import (
	"github.com/tidwall/sjson"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/validation"
)

// GrantType is the wire tag of a credential grant.
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
)

// Grant is one of ClientCredentials, AuthorizationCode or RefreshToken.
type Grant interface {
	GrantType() GrantType
	Identity() ClientIdentity
	// RefreshTokenValue returns the refresh token carried by a
	// RefreshToken grant.
	RefreshTokenValue() (Secret, bool)

	encode(body string) (string, error)
}

// ClientIdentity is the client id and secret every grant carries.
type ClientIdentity struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret Secret `mapstructure:"client_secret" validate:"required"`
}

// Identity returns the client identity.
func (c ClientIdentity) Identity() ClientIdentity { return c }

// ClientCredentials is the client_credentials grant. An empty Scope is
// sent as is and left for the auth server to resolve.
type ClientCredentials struct {
	ClientIdentity `mapstructure:",squash"`
	Scope          string `mapstructure:"scope"`
}

func (ClientCredentials) GrantType() GrantType { return GrantClientCredentials }

func (ClientCredentials) RefreshTokenValue() (Secret, bool) { return "", false }

func (g ClientCredentials) encode(body string) (string, error) {
	return sjson.Set(body, "scope", g.Scope)
}

// AuthorizationCode is the authorization_code grant.
type AuthorizationCode struct {
	ClientIdentity `mapstructure:",squash"`
	Code           string `mapstructure:"code" validate:"required"`
	RedirectURI    string `mapstructure:"redirect_uri" validate:"required"`
}

func (AuthorizationCode) GrantType() GrantType { return GrantAuthorizationCode }

func (AuthorizationCode) RefreshTokenValue() (Secret, bool) { return "", false }

func (g AuthorizationCode) encode(body string) (string, error) {
	body, err := sjson.Set(body, "code", g.Code)
	if err != nil {
		return "", err
	}
	return sjson.Set(body, "redirect_uri", g.RedirectURI)
}

// RefreshToken is the refresh_token grant.
type RefreshToken struct {
	ClientIdentity `mapstructure:",squash"`
	Token          Secret `mapstructure:"refresh_token" validate:"required"`
}

func (RefreshToken) GrantType() GrantType { return GrantRefreshToken }

func (g RefreshToken) RefreshTokenValue() (Secret, bool) { return g.Token, true }

func (g RefreshToken) encode(body string) (string, error) {
	return sjson.Set(body, "refresh_token", g.Token.Expose())
}

// EncodeGrant renders the token endpoint request body of g, tagged with
// its grant_type. Secrets appear in cleartext.
func EncodeGrant(g Grant) ([]byte, error) {
	id := g.Identity()
	body, err := sjson.Set(`{}`, "grant_type", string(g.GrantType()))
	if err == nil {
		body, err = sjson.Set(body, "client_id", id.ClientID)
	}
	if err == nil {
		body, err = sjson.Set(body, "client_secret", id.ClientSecret.Expose())
	}
	if err == nil {
		body, err = g.encode(body)
	}
	if err != nil {
		return nil, clienterrors.WrapOther("auth: encode grant", err)
	}
	return []byte(body), nil
}

// ValidateGrant checks that every field the grant needs is set.
func ValidateGrant(g Grant) error {
	if g == nil {
		return clienterrors.Otherf("auth: grant is required")
	}
	if err := validation.Validate(g); err != nil {
		return clienterrors.WrapOther("auth: invalid "+string(g.GrantType())+" grant", err)
	}
	return nil
}

// rotate switches any grant to the refresh_token grant, keeping the
// client identity.
func rotate(g Grant, refreshToken Secret) Grant {
	return RefreshToken{ClientIdentity: g.Identity(), Token: refreshToken}
}
