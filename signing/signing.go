// Package signing produces and verifies detached request signatures.
//
// A signature is a JWS whose payload is not transmitted: the payload is
// rebuilt by the verifier from the request itself as
//
//	"<METHOD> <path>\n" + "<Header>: <value>\n"... + body
//
// and the transmitted value is "<protected header>..<signature>". The
// protected header names the key id and, in order, the headers that were
// included in the payload.
package signing

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	clienterrors "github.com/kbukum/payclient/errors"
)

// Header names used by the signing scheme.
const (
	HeaderSignature      = "Tl-Signature"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Version is the scheme version carried in every protected header.
const Version = "2"

// Header is a request header included in the signed payload.
type Header struct {
	Name  string
	Value string
}

// Input is the part of a request covered by a signature.
type Input struct {
	Method  string
	Path    string
	Headers []Header
	Body    []byte
}

// JWSHeader is the protected header of a signature.
type JWSHeader struct {
	Alg       string `json:"alg"`
	Kid       string `json:"kid"`
	TLVersion string `json:"tl_version"`
	TLHeaders string `json:"tl_headers"`
}

// HeaderNames returns the header names listed in TLHeaders.
func (h JWSHeader) HeaderNames() []string {
	if h.TLHeaders == "" {
		return nil
	}
	names := strings.Split(h.TLHeaders, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

// Signer signs requests with an ECDSA private key.
type Signer struct {
	keyID  string
	key    *ecdsa.PrivateKey
	method *jwt.SigningMethodECDSA
}

// NewSigner parses a PEM encoded EC private key (SEC1 or PKCS#8).
func NewSigner(keyID string, privateKeyPEM []byte) (*Signer, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, clienterrors.NewSigningError("parse private key", err)
	}
	return NewSignerFromKey(keyID, key)
}

// NewSignerFromKey creates a signer from an already parsed key.
func NewSignerFromKey(keyID string, key *ecdsa.PrivateKey) (*Signer, error) {
	if keyID == "" {
		return nil, clienterrors.NewSigningError("key id is required", nil)
	}
	if key == nil {
		return nil, clienterrors.NewSigningError("private key is required", nil)
	}
	method, err := methodForCurve(key.Curve.Params().Name)
	if err != nil {
		return nil, err
	}
	return &Signer{keyID: keyID, key: key, method: method}, nil
}

// KeyID returns the key identifier placed in every signature.
func (s *Signer) KeyID() string { return s.keyID }

// Sign returns the detached signature of in.
func (s *Signer) Sign(in Input) (string, error) {
	names := make([]string, len(in.Headers))
	for i, h := range in.Headers {
		names[i] = h.Name
	}

	header, err := json.Marshal(JWSHeader{
		Alg:       s.method.Alg(),
		Kid:       s.keyID,
		TLVersion: Version,
		TLHeaders: strings.Join(names, ","),
	})
	if err != nil {
		return "", clienterrors.NewSigningError("encode header", err)
	}

	encodedHeader := encodeSegment(header)
	signingString := encodedHeader + "." + encodeSegment(payload(in))

	sig, err := s.method.Sign(signingString, s.key)
	if err != nil {
		return "", clienterrors.NewSigningError("sign payload", err)
	}

	return encodedHeader + ".." + encodeSegment(sig), nil
}

// ParseHeader decodes the protected header of a detached signature.
func ParseHeader(signature string) (JWSHeader, error) {
	var h JWSHeader
	encodedHeader, _, err := splitDetached(signature)
	if err != nil {
		return h, err
	}
	raw, err := decodeSegment(encodedHeader)
	if err != nil {
		return h, clienterrors.NewSigningError("decode header", err)
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, clienterrors.NewSigningError("parse header", err)
	}
	return h, nil
}

// payload builds the canonical byte string covered by a signature.
func payload(in Input) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", strings.ToUpper(in.Method), in.Path)
	for _, h := range in.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	b.Write(in.Body)
	return []byte(b.String())
}

func splitDetached(signature string) (header, sig string, err error) {
	parts := strings.Split(signature, ".")
	if len(parts) != 3 || parts[1] != "" {
		return "", "", clienterrors.NewSigningError("malformed detached signature", nil)
	}
	return parts[0], parts[2], nil
}

func methodForCurve(name string) (*jwt.SigningMethodECDSA, error) {
	switch name {
	case "P-256":
		return jwt.SigningMethodES256, nil
	case "P-384":
		return jwt.SigningMethodES384, nil
	case "P-521":
		return jwt.SigningMethodES512, nil
	default:
		return nil, clienterrors.NewSigningError(fmt.Sprintf("unsupported curve %q", name), nil)
	}
}

func encodeSegment(seg []byte) string {
	return base64.RawURLEncoding.EncodeToString(seg)
}

func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(seg)
}
