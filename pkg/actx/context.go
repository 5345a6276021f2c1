// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"maps"
	"slices"
	"strings"
)

type (
	// Inline holds in-memory declarations layered onto one context.
	Inline struct {
		// Functions maps domain → action name → value. A value may be a Func,
		// an *Action, a Callable, or a literal, which becomes an action
		// returning that literal.
		Functions map[string]map[string]any
		// Properties are flat top-level values, independent of domains.
		Properties map[string]any
	}

	// ContextOption adds inline declarations to a context being created.
	ContextOption func(*Inline)

	// Context is the object handed to application code: one Namespace per
	// domain plus inline properties. A Context never mutates the state it
	// shares with its Provider.
	Context struct {
		provider   *Provider
		domains    map[string]*Namespace
		properties map[string]any
	}

	// Namespace exposes the actions of one domain. Discovered actions resolve
	// lazily through the provider's cache; inline actions shadow them.
	Namespace struct {
		name       string
		owner      *Context
		discovered map[string]Entry
		inline     map[string]*Action
	}
)

// WithInline layers a whole Inline declaration. Later options win per key.
func WithInline(in Inline) ContextOption {
	return func(dst *Inline) {
		for domain, fns := range in.Functions {
			for name, v := range fns {
				WithFunction(domain, name, v)(dst)
			}
		}
		for name, v := range in.Properties {
			WithProperty(name, v)(dst)
		}
	}
}

// WithFunctions layers inline actions, keyed by domain then action name.
func WithFunctions(fns map[string]map[string]any) ContextOption {
	return WithInline(Inline{Functions: fns})
}

// WithFunction layers a single inline action.
func WithFunction(domain, name string, v any) ContextOption {
	return func(dst *Inline) {
		if dst.Functions == nil {
			dst.Functions = make(map[string]map[string]any)
		}
		if dst.Functions[domain] == nil {
			dst.Functions[domain] = make(map[string]any)
		}
		dst.Functions[domain][name] = v
	}
}

// WithProperties layers flat top-level properties.
func WithProperties(props map[string]any) ContextOption {
	return WithInline(Inline{Properties: props})
}

// WithProperty layers a single top-level property.
func WithProperty(name string, v any) ContextOption {
	return func(dst *Inline) {
		if dst.Properties == nil {
			dst.Properties = make(map[string]any)
		}
		dst.Properties[name] = v
	}
}

// compose builds a context from the provider's merged map and inline
// declarations. It performs no I/O.
func compose(p *Provider, in Inline) *Context {
	c := &Context{
		provider:   p,
		domains:    make(map[string]*Namespace, len(p.merged)+len(in.Functions)),
		properties: maps.Clone(in.Properties),
	}
	for domain, entries := range p.merged {
		c.domains[domain] = &Namespace{name: domain, owner: c, discovered: entries}
	}
	for domain, fns := range in.Functions {
		ns, ok := c.domains[domain]
		if !ok {
			ns = &Namespace{name: domain, owner: c}
			c.domains[domain] = ns
		}
		ns.inline = make(map[string]*Action, len(fns))
		for name, v := range fns {
			if a, isAction := v.(*Action); isAction && a != nil {
				ns.inline[name] = a
				continue
			}
			ns.inline[name] = &Action{domain: domain, name: name, fn: inlineFunc(v)}
		}
	}
	return c
}

// Empty reports whether the provider was set up without locations, so the
// context holds inline declarations only.
func (c *Context) Empty() bool { return c.provider.empty }

// Domain returns the namespace of a domain.
func (c *Context) Domain(name string) (*Namespace, bool) {
	ns, ok := c.domains[name]
	return ns, ok
}

// Domains returns all domain names, discovered and inline, sorted.
func (c *Context) Domains() []string {
	return slices.Sorted(maps.Keys(c.domains))
}

// Has reports whether domain.name is reachable without loading it.
func (c *Context) Has(domain, name string) bool {
	ns, ok := c.domains[domain]
	return ok && ns.Has(name)
}

// Action resolves domain.name, loading it on first access.
func (c *Context) Action(ctx context.Context, domain, name string) (*Action, error) {
	ns, ok := c.domains[domain]
	if !ok {
		return nil, notFound(domain + "." + name)
	}
	return ns.Get(ctx, name)
}

// Call resolves key ("domain.name") and invokes it with c as its context.
func (c *Context) Call(ctx context.Context, key string, args ...any) (any, error) {
	domain, name, ok := c.Resolve(key)
	if !ok {
		return nil, notFound(key)
	}
	a, err := c.Action(ctx, domain, name)
	if err != nil {
		return nil, err
	}
	return a.Call(ctx, c, args...)
}

// Resolve splits key ("domain.name") into a domain and an action name that
// the context holds. Domains and action names may both contain dots; the
// leftmost split whose domain holds the remaining name wins.
func (c *Context) Resolve(key string) (domain, name string, ok bool) {
	for i := strings.IndexByte(key, '.'); i >= 0; {
		if c.Has(key[:i], key[i+1:]) {
			return key[:i], key[i+1:], true
		}
		next := strings.IndexByte(key[i+1:], '.')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", "", false
}

// Property returns an inline property.
func (c *Context) Property(name string) (any, bool) {
	v, ok := c.properties[name]
	return v, ok
}

// Properties returns a copy of the inline properties.
func (c *Context) Properties() map[string]any {
	return maps.Clone(c.properties)
}

// Name returns the domain name.
func (n *Namespace) Name() string { return n.name }

// Has reports whether the namespace holds name, inline or discovered.
func (n *Namespace) Has(name string) bool {
	if _, ok := n.inline[name]; ok {
		return true
	}
	_, ok := n.discovered[name]
	return ok
}

// Names returns every action name of the namespace, sorted.
func (n *Namespace) Names() []string {
	names := make(map[string]struct{}, len(n.discovered)+len(n.inline))
	for name := range n.discovered {
		names[name] = struct{}{}
	}
	for name := range n.inline {
		names[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names))
}

// Get resolves an action. Inline actions win; discovered ones load through the
// provider cache, so repeated calls return the same *Action.
func (n *Namespace) Get(ctx context.Context, name string) (*Action, error) {
	if a, ok := n.inline[name]; ok {
		return a, nil
	}
	e, ok := n.discovered[name]
	if !ok {
		return nil, notFound(n.name + "." + name)
	}
	return n.owner.provider.cache.get(ctx, e)
}

// Call resolves name and invokes it.
func (n *Namespace) Call(ctx context.Context, name string, args ...any) (any, error) {
	a, err := n.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.Call(ctx, n.owner, args...)
}
