package signing

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/kbukum/payclient/errors"
)

func newKey(t *testing.T, curve elliptic.Curve) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSigner_SignAndVerify(t *testing.T) {
	key := newKey(t, elliptic.P521())
	signer, err := NewSignerFromKey("kid-1", key)
	require.NoError(t, err)

	body := []byte(`{"amount_in_minor":100}`)
	sig, err := signer.Sign(Input{
		Method:  "post",
		Path:    "/v3/payments",
		Headers: []Header{{Name: HeaderIdempotencyKey, Value: "idem-1"}},
		Body:    body,
	})
	require.NoError(t, err)
	assert.Contains(t, sig, "..", "signature must be detached")

	header := http.Header{}
	header.Set(HeaderIdempotencyKey, "idem-1")
	header.Set("X-Unsigned", "ignored")
	require.NoError(t, Verify(&key.PublicKey, sig, http.MethodPost, "/v3/payments", header, body))

	h, err := ParseHeader(sig)
	require.NoError(t, err)
	assert.Equal(t, "ES512", h.Alg)
	assert.Equal(t, "kid-1", h.Kid)
	assert.Equal(t, Version, h.TLVersion)
	assert.Equal(t, []string{HeaderIdempotencyKey}, h.HeaderNames())
}

func TestSigner_AlgorithmFollowsCurve(t *testing.T) {
	tests := []struct {
		curve elliptic.Curve
		alg   string
	}{
		{elliptic.P256(), "ES256"},
		{elliptic.P384(), "ES384"},
		{elliptic.P521(), "ES512"},
	}
	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			key := newKey(t, tt.curve)
			signer, err := NewSignerFromKey("kid", key)
			require.NoError(t, err)

			sig, err := signer.Sign(Input{Method: http.MethodDelete, Path: "/x"})
			require.NoError(t, err)

			h, err := ParseHeader(sig)
			require.NoError(t, err)
			assert.Equal(t, tt.alg, h.Alg)
			assert.Empty(t, h.HeaderNames())
			assert.NoError(t, Verify(&key.PublicKey, sig, http.MethodDelete, "/x", nil, nil))
		})
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	key := newKey(t, elliptic.P521())
	signer, err := NewSignerFromKey("kid", key)
	require.NoError(t, err)

	header := http.Header{}
	header.Set(HeaderIdempotencyKey, "idem-1")
	sig, err := signer.Sign(Input{
		Method:  http.MethodPost,
		Path:    "/payments",
		Headers: []Header{{Name: HeaderIdempotencyKey, Value: "idem-1"}},
		Body:    []byte("original"),
	})
	require.NoError(t, err)

	tests := map[string]func() error{
		"body": func() error {
			return Verify(&key.PublicKey, sig, http.MethodPost, "/payments", header, []byte("changed"))
		},
		"path": func() error {
			return Verify(&key.PublicKey, sig, http.MethodPost, "/refunds", header, []byte("original"))
		},
		"method": func() error {
			return Verify(&key.PublicKey, sig, http.MethodPut, "/payments", header, []byte("original"))
		},
		"header value": func() error {
			h := header.Clone()
			h.Set(HeaderIdempotencyKey, "idem-2")
			return Verify(&key.PublicKey, sig, http.MethodPost, "/payments", h, []byte("original"))
		},
		"missing header": func() error {
			return Verify(&key.PublicKey, sig, http.MethodPost, "/payments", http.Header{}, []byte("original"))
		},
		"other key": func() error {
			other := newKey(t, elliptic.P521())
			return Verify(&other.PublicKey, sig, http.MethodPost, "/payments", header, []byte("original"))
		},
	}
	for name, verify := range tests {
		t.Run(name, func(t *testing.T) {
			err := verify()
			require.Error(t, err)
			assert.True(t, clienterrors.IsSigning(err), "expected signing error, got %v", err)
		})
	}
}

func TestNewSigner_PEM(t *testing.T) {
	key := newKey(t, elliptic.P521())
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	signer, err := NewSigner("kid", privPEM)
	require.NoError(t, err)
	assert.Equal(t, "kid", signer.KeyID())

	sig, err := signer.Sign(Input{Method: http.MethodPatch, Path: "/p", Body: []byte("b")})
	require.NoError(t, err)
	assert.NoError(t, VerifyPEM(pubPEM, sig, http.MethodPatch, "/p", nil, []byte("b")))
}

func TestNewSigner_Invalid(t *testing.T) {
	_, err := NewSigner("kid", []byte("not a key"))
	assert.True(t, clienterrors.IsSigning(err))

	_, err = NewSignerFromKey("", newKey(t, elliptic.P256()))
	assert.True(t, clienterrors.IsSigning(err))

	_, err = NewSignerFromKey("kid", nil)
	assert.True(t, clienterrors.IsSigning(err))
}

func TestParseHeader_Malformed(t *testing.T) {
	for _, sig := range []string{"", "a.b.c", "only-one", strings.Repeat(".", 4)} {
		_, err := ParseHeader(sig)
		assert.Error(t, err, "signature %q", sig)
	}
}
