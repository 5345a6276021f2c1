// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"errors"
	"fmt"
)

type (
	// Func is the body of an action. c is the context the action was reached
	// through, so an action can call actions of other domains.
	Func func(ctx context.Context, c *Context, args ...any) (any, error)

	// Callable is implemented by module exports that carry their own call method.
	Callable interface {
		Call(ctx context.Context, c *Context, args ...any) (any, error)
	}

	// Loader is the module-loading collaborator: it returns the export of the
	// module stored at path.
	Loader interface {
		Load(ctx context.Context, path string) (any, error)
	}

	// LoaderFunc adapts a function to the Loader interface.
	LoaderFunc func(ctx context.Context, path string) (any, error)

	// Action is a loaded, callable action. Pointers handed out by one Provider
	// are stable: the same (domain, name) always yields the same *Action.
	Action struct {
		domain string
		name   string
		source string
		fn     Func
	}
)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (any, error) { return f(ctx, path) }

// Domain returns the domain the action belongs to.
func (a *Action) Domain() string { return a.domain }

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Source returns the file the action was loaded from; empty for inline actions.
func (a *Action) Source() string { return a.source }

// Call invokes the action.
func (a *Action) Call(ctx context.Context, c *Context, args ...any) (any, error) {
	return a.fn(ctx, c, args...)
}

// String returns "domain.name".
func (a *Action) String() string { return a.domain + "." + a.name }

// toFunc converts a loaded module export into a Func. ok is false when the
// export is nil or not callable.
func toFunc(export any) (Func, bool) {
	switch v := export.(type) {
	case nil:
		return nil, false
	case Func:
		return v, v != nil
	case func(context.Context, *Context, ...any) (any, error):
		return v, v != nil
	case *Action:
		return v.Call, v != nil
	case Callable:
		return v.Call, true
	default:
		return nil, false
	}
}

// inlineFunc converts an inline value into a Func. Non-callable values become
// actions that return the value.
func inlineFunc(v any) Func {
	if fn, ok := toFunc(v); ok {
		return fn
	}
	switch f := v.(type) {
	case func() any:
		return func(context.Context, *Context, ...any) (any, error) { return f(), nil }
	case func() (any, error):
		return func(context.Context, *Context, ...any) (any, error) { return f() }
	}
	return func(context.Context, *Context, ...any) (any, error) { return v, nil }
}

// exportError describes an export that cannot serve as an action.
func exportError(export any) error {
	if export == nil {
		return errors.New("module has no export")
	}
	return fmt.Errorf("module exports %T, want a callable", export)
}
