package middleware

import (
	"context"

	"github.com/kbukum/payclient/httpclient"
)

// Handler sends a request and returns its response. *httpclient.Client
// and *Chain both implement it.
type Handler interface {
	Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error)

// Do implements Handler.
func (f HandlerFunc) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return f(ctx, req)
}

// Middleware intercepts a request on its way to the transport. It may
// modify the request, call next any number of times, or answer without
// calling next at all.
type Middleware interface {
	Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error)
}

// Func adapts a function to the Middleware interface.
type Func func(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error)

// Handle implements Middleware.
func (f Func) Handle(ctx context.Context, req *httpclient.Request, next Next) (*httpclient.Response, error) {
	return f(ctx, req, next)
}

// Next is the remainder of a chain as seen from one middleware.
type Next struct {
	chain []Middleware
	final Handler
}

// Run passes req to the next middleware, or to the transport when none
// are left.
func (n Next) Run(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	if len(n.chain) == 0 {
		return n.final.Do(ctx, req)
	}
	return n.chain[0].Handle(ctx, req, Next{chain: n.chain[1:], final: n.final})
}

// Chain is an ordered list of middlewares in front of a final handler.
// The first middleware is the outermost: it sees the request first and
// the response last.
type Chain struct {
	middlewares []Middleware
	final       Handler
}

// NewChain builds a chain. Nil middlewares are skipped.
func NewChain(final Handler, middlewares ...Middleware) *Chain {
	c := &Chain{final: final}
	for _, mw := range middlewares {
		if mw != nil {
			c.middlewares = append(c.middlewares, mw)
		}
	}
	return c
}

// Do sends req through the chain.
func (c *Chain) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return Next{chain: c.middlewares, final: c.final}.Run(ctx, req)
}

// Len returns the number of middlewares in the chain.
func (c *Chain) Len() int { return len(c.middlewares) }
