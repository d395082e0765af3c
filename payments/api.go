package payments

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/payclient/auth"
	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/signing"
	"github.com/kbukum/payclient/validation"
)

// Doer sends a request through the API chain. Relative paths are
// resolved against the payments URL.
type Doer interface {
	Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)
}

// API is the payments resource.
type API struct {
	doer          Doer
	hostedPageURL string
	newKey        func() string
}

// New returns the payments resource. hostedPageURL is the base URL of the
// hosted payment page.
func New(doer Doer, hostedPageURL string) *API {
	return &API{
		doer:          doer,
		hostedPageURL: hostedPageURL,
		newKey:        uuid.NewString,
	}
}

// Create creates a payment. Every call carries a fresh Idempotency-Key,
// which makes it safe to retry on transient failures.
func (a *API) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := validation.Validate(req); err != nil {
		return nil, clienterrors.WrapOther("payments: invalid create request", err)
	}

	r := httpclient.NewRequest(http.MethodPost, "/payments").
		SetHeader(signing.HeaderIdempotencyKey, a.newKey())
	if err := r.SetJSON(req); err != nil {
		return nil, err
	}

	resp, err := a.doer.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	var out CreateResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the payment with the given id. A missing payment surfaces
// as an *errors.APIError with status 404; see IsNotFound.
func (a *API) Get(ctx context.Context, id string) (*Payment, error) {
	resp, err := a.doer.Do(ctx, httpclient.NewRequest(http.MethodGet, "/payments/"+url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	var p Payment
	if err := resp.DecodeJSON(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HostedPageLink builds the hosted payment page URL for a created payment.
// The resource token travels in the fragment so it never reaches a server
// log.
func (a *API) HostedPageLink(paymentID string, resourceToken auth.Secret, returnURI string) string {
	fragment := url.Values{}
	fragment.Set("payment_id", paymentID)
	fragment.Set("resource_token", resourceToken.Expose())
	fragment.Set("return_uri", returnURI)
	return strings.TrimRight(a.hostedPageURL, "/") + "/payments#" + fragment.Encode()
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool {
	apiErr, ok := clienterrors.AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}
