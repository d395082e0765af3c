package payments

import (
	"context"

	clienterrors "github.com/kbukum/payclient/errors"
	"github.com/kbukum/payclient/pollable"
)

// Handle is a pollable reference to one payment.
type Handle struct {
	api *API
	id  string
}

// Handle returns a pollable reference to the payment with the given id.
func (a *API) Handle(id string) *Handle {
	return &Handle{api: a, id: id}
}

// ID returns the payment id.
func (h *Handle) ID() string { return h.id }

// PollOnce fetches the payment. A payment that disappears while being
// polled is reported as an Other error.
func (h *Handle) PollOnce(ctx context.Context) (*Payment, error) {
	p, err := h.api.Get(ctx, h.id)
	if IsNotFound(err) {
		return nil, clienterrors.Otherf("payments: payment %s returned 404 while polling", h.id)
	}
	return p, err
}

// IsInTerminalState implements pollable.Resource.
func (h *Handle) IsInTerminalState(p *Payment) bool {
	return p.IsInTerminalState()
}

// WaitForTerminalState polls the payment until it is executed, settled or
// failed.
func (a *API) WaitForTerminalState(ctx context.Context, id string, opts pollable.Options) (*Payment, error) {
	return pollable.UntilTerminalState[*Payment](ctx, a.Handle(id), opts)
}
