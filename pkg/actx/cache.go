// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// actionCache turns entries into actions on first access and keeps them for
// the lifetime of the owning Provider. Entries are only ever added.
//
// Concurrent first accesses to one key share a single load, so every caller
// observes the same *Action. A failed load stores nothing; the next access
// loads again.
type actionCache struct {
	loader Loader
	logger *log.Logger

	mu      sync.RWMutex
	actions map[string]*Action
	loads   singleflight.Group
}

func newActionCache(loader Loader, logger *log.Logger) *actionCache {
	return &actionCache{
		loader:  loader,
		logger:  logger,
		actions: make(map[string]*Action),
	}
}

func cacheKey(domain, name string) string { return domain + "\x00" + name }

// has reports whether the action is already loaded.
func (c *actionCache) has(domain, name string) bool {
	return c.lookup(cacheKey(domain, name)) != nil
}

func (c *actionCache) lookup(key string) *Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actions[key]
}

// get returns the cached action for e, loading it on first access.
func (c *actionCache) get(ctx context.Context, e Entry) (*Action, error) {
	key := cacheKey(e.Domain, e.Name)
	if a := c.lookup(key); a != nil {
		return a, nil
	}
	// The shared load outlives any single caller; each caller stops waiting
	// when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(key, func() (any, error) {
		if a := c.lookup(key); a != nil {
			return a, nil
		}
		a, err := c.load(loadCtx, e)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.actions[key] = a
		c.mu.Unlock()
		return a, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Val.(*Action), nil
}

func (c *actionCache) load(ctx context.Context, e Entry) (*Action, error) {
	if c.loader == nil {
		return nil, &LoadError{Domain: e.Domain, Name: e.Name, Source: e.Source, Cause: errors.New("no loader configured")}
	}
	export, err := c.loader.Load(ctx, e.Source)
	if err != nil {
		return nil, &LoadError{Domain: e.Domain, Name: e.Name, Source: e.Source, Cause: err}
	}
	fn, ok := toFunc(export)
	if !ok {
		return nil, &LoadError{Domain: e.Domain, Name: e.Name, Source: e.Source, Cause: exportError(export)}
	}
	c.logger.Debug("loaded action", "action", e.Key(), "source", e.Source)
	return &Action{domain: e.Domain, name: e.Name, source: e.Source, fn: fn}, nil
}
