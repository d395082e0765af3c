package middleware

import (
	"context"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/httpclient"
)

// ErrorHandling turns every non-2xx response into an *errors.APIError.
type ErrorHandling struct{}

// Handle implements Middleware.
func (ErrorHandling) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	resp, err := next.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, clienterrors.FromResponse(resp.StatusCode, resp.Status, resp.Header, resp.Body)
	}
	return resp, nil
}
