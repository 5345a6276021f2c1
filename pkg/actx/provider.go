// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type (
	// Location is one discovery source: a base directory and an optional
	// inclusive filter (true keeps a file).
	Location struct {
		Source Spec
		Filter Spec
	}

	// Option configures Setup.
	Option func(*Provider)

	// Provider owns the merged map and action cache built by Setup. Contexts
	// created from the same Provider share both; separate Providers share nothing.
	Provider struct {
		baseDir    string
		fileFilter Spec
		loader     Loader
		walker     Walker
		logger     *log.Logger

		locations []Location
		empty     bool
		merged    MergedMap
		cache     *actionCache
	}
)

// At returns a location for a plain path reference with no filter.
func At(ref string) Location { return Location{Source: Path(ref)} }

// WithBaseDir sets the directory relative path references resolve against.
// Without it they resolve against the process working directory.
func WithBaseDir(dir string) Option {
	return func(p *Provider) { p.baseDir = dir }
}

// WithFileFilter sets the provider-wide exclusion filter: files it matches are
// dropped from every location, after the location's own filter.
func WithFileFilter(spec Spec) Option {
	return func(p *Provider) { p.fileFilter = spec }
}

// WithLoader sets the module-loading collaborator.
func WithLoader(l Loader) Option {
	return func(p *Provider) { p.loader = l }
}

// WithWalker replaces the default DirWalker.
func WithWalker(w Walker) Option {
	return func(p *Provider) { p.walker = w }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// Setup resolves every location, scans them concurrently and merges the
// results in declared order. Any configuration or discovery error aborts the
// whole call and no Provider is returned.
func Setup(ctx context.Context, locations []Location, opts ...Option) (*Provider, error) {
	p := &Provider{
		walker:    DirWalker{},
		logger:    log.Default(),
		locations: append([]Location(nil), locations...),
		empty:     len(locations) == 0,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = newActionCache(p.loader, p.logger)

	resolved, err := p.resolve(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]Entry, len(resolved))
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range resolved {
		g.Go(func() error {
			entries, err := scan(gctx, p.walker, loc, p.logger)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.merged = merge(results)
	p.logger.Debug("provider ready", "locations", len(resolved), "domains", len(p.merged), "actions", p.merged.Len())
	return p, nil
}

// resolve turns every location's Specs into directories and filters. It runs
// before any scan so a bad Spec fails Setup without touching the filesystem.
func (p *Provider) resolve(ctx context.Context) ([]resolvedLocation, error) {
	r := &resolver{baseDir: p.baseDir, loader: p.loader}
	exclude, err := r.filter(ctx, "fileFilter", p.fileFilter)
	if err != nil {
		return nil, err
	}
	resolved := make([]resolvedLocation, len(p.locations))
	for i, loc := range p.locations {
		dir, err := r.dir(fmt.Sprintf("locations[%d].source", i), loc.Source)
		if err != nil {
			return nil, err
		}
		include, err := r.filter(ctx, fmt.Sprintf("locations[%d].filter", i), loc.Filter)
		if err != nil {
			return nil, err
		}
		resolved[i] = resolvedLocation{index: i, dir: dir, sel: selector{include: include, exclude: exclude}}
	}
	return resolved, nil
}

// CreateContext composes a new context from the discovered actions and the
// given inline declarations. It does no I/O and may be called concurrently.
func (p *Provider) CreateContext(opts ...ContextOption) *Context {
	var in Inline
	for _, opt := range opts {
		opt(&in)
	}
	return compose(p, in)
}

// Domains returns the discovered domain names, sorted.
func (p *Provider) Domains() []string { return p.merged.Domains() }

// Entries returns the winning entries of a domain, sorted by action name.
func (p *Provider) Entries(domain string) []Entry {
	names := p.merged.Names(domain)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, p.merged[domain][name])
	}
	return entries
}

// Lookup returns the winning entry for domain/name.
func (p *Provider) Lookup(domain, name string) (Entry, bool) {
	return p.merged.Lookup(domain, name)
}

// Loaded reports whether domain/name has already been loaded into the cache.
func (p *Provider) Loaded(domain, name string) bool { return p.cache.has(domain, name) }

// Locations returns the configured locations in declared order.
func (p *Provider) Locations() []Location { return append([]Location(nil), p.locations...) }
