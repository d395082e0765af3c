package middleware

import (
	"context"

	"github.com/kbukum/payclient/httpclient"
	"github.com/kbukum/payclient/version"
)

// UserAgent sets a fixed User-Agent header on every request.
type UserAgent struct {
	Value string
}

// NewUserAgent returns a UserAgent middleware sending "payclient/<version>".
func NewUserAgent() *UserAgent {
	return &UserAgent{Value: version.UserAgent()}
}

// Handle implements Middleware.
func (u *UserAgent) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	req.SetHeader("User-Agent", u.Value)
	return next.Run(ctx, req)
}
