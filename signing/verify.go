package signing

import (
	"crypto/ecdsa"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	clienterrors "github.com/kbukum/payclient/errors"
)

// Verify checks a detached signature against the request it claims to
// cover. Only the headers listed in the signature's protected header are
// taken from header, in the order they were signed.
func Verify(publicKey *ecdsa.PublicKey, signature, method, path string, header http.Header, body []byte) error {
	h, err := ParseHeader(signature)
	if err != nil {
		return err
	}
	if h.TLVersion != Version {
		return clienterrors.NewSigningError(fmt.Sprintf("unsupported version %q", h.TLVersion), nil)
	}

	signingMethod, ok := jwt.GetSigningMethod(h.Alg).(*jwt.SigningMethodECDSA)
	if !ok {
		return clienterrors.NewSigningError(fmt.Sprintf("unsupported algorithm %q", h.Alg), nil)
	}

	in := Input{Method: method, Path: path, Body: body}
	for _, name := range h.HeaderNames() {
		values, ok := header[http.CanonicalHeaderKey(name)]
		if !ok || len(values) == 0 {
			return clienterrors.NewSigningError(fmt.Sprintf("signed header %q missing", name), nil)
		}
		in.Headers = append(in.Headers, Header{Name: name, Value: values[0]})
	}

	encodedHeader, encodedSig, err := splitDetached(signature)
	if err != nil {
		return err
	}
	sig, err := decodeSegment(encodedSig)
	if err != nil {
		return clienterrors.NewSigningError("decode signature", err)
	}

	signingString := encodedHeader + "." + encodeSegment(payload(in))
	if err := signingMethod.Verify(signingString, sig, publicKey); err != nil {
		return clienterrors.NewSigningError("invalid signature", err)
	}
	return nil
}

// VerifyPEM is Verify with a PEM encoded public key.
func VerifyPEM(publicKeyPEM []byte, signature, method, path string, header http.Header, body []byte) error {
	key, err := jwt.ParseECPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return clienterrors.NewSigningError("parse public key", err)
	}
	return Verify(key, signature, method, path, header, body)
}
