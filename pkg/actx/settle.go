// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type (
	// Call names one action invocation for All and Settle.
	Call struct {
		// Key is "domain.name".
		Key  string
		Args []any
	}

	// Settled is the outcome of one Call.
	Settled struct {
		Value any
		Err   error
	}
)

// Invoke builds a Call.
func Invoke(key string, args ...any) Call { return Call{Key: key, Args: args} }

// All runs every call concurrently against c and returns their values in call
// order. The first error cancels the ctx passed to the remaining calls and is
// returned once all of them have finished.
func All(ctx context.Context, c *Context, calls ...Call) ([]any, error) {
	values := make([]any, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			v, err := c.Call(gctx, call.Key, call.Args...)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// Settle runs every call concurrently against c and reports each outcome in
// call order. A failing call does not affect the others.
func Settle(ctx context.Context, c *Context, calls ...Call) []Settled {
	out := make([]Settled, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			v, err := c.Call(ctx, call.Key, call.Args...)
			out[i] = Settled{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
