package middleware

import (
	"context"
	"net/http"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/signing"
)

// Signing adds a Tl-Signature header to POST, PUT, PATCH and DELETE
// requests. The signature covers method, path, the Idempotency-Key header
// when present, and the body.
type Signing struct {
	signer *signing.Signer
}

// NewSigning returns a Signing middleware.
func NewSigning(signer *signing.Signer) *Signing {
	return &Signing{signer: signer}
}

// Handle implements Middleware.
func (s *Signing) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	if !requiresSignature(req.Method) {
		return next.Run(ctx, req)
	}
	if req.IsStreaming() {
		return nil, clienterrors.NewSigningError("streaming request bodies cannot be signed", nil)
	}

	var headers []signing.Header
	if key := req.Header.Get(signing.HeaderIdempotencyKey); key != "" {
		headers = append(headers, signing.Header{Name: signing.HeaderIdempotencyKey, Value: key})
	}

	sig, err := s.signer.Sign(signing.Input{
		Method:  req.Method,
		Path:    req.URLPath(),
		Headers: headers,
		Body:    req.Body,
	})
	if err != nil {
		return nil, err
	}
	req.SetHeader(signing.HeaderSignature, sig)
	return next.Run(ctx, req)
}

func requiresSignature(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
