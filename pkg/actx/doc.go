// SPDX-License-Identifier: MPL-2.0

// Package actx builds runtime contexts from actions discovered on disk.
//
// Actions are files grouped into domains by their first directory beneath a
// location's base directory: <base>/<domain>/.../<action>.<ext>. Setup scans
// all locations concurrently and merges them in declared order, so a later
// location replaces an earlier one's action of the same domain and name.
// Actions are loaded through a Loader on first access and cached for the
// lifetime of the Provider.
//
// File organization:
//   - spec.go: Spec tagged union and its resolution (paths, patterns, globs, predicate modules)
//   - filter.go: inclusive location filters combined with the exclusive global filter
//   - scan.go: Walker, DirWalker and per-location scanning
//   - merge.go: MergedMap and the last-location-wins merge
//   - cache.go: lazy, identity-stable action cache
//   - context.go: Context, Namespace and inline composition
//   - provider.go: Setup and CreateContext
//   - settle.go: ordered concurrent invocation helpers for aggregating actions
//
// Typical use:
//
//	p, err := actx.Setup(ctx, []actx.Location{
//		actx.At("actions"),
//		{Source: actx.Path("overrides"), Filter: actx.Glob("billing/**")},
//	}, actx.WithBaseDir(root), actx.WithLoader(loader.Default()))
//	if err != nil {
//		return err
//	}
//	c := p.CreateContext(actx.WithProperty("tenant", "acme"))
//	out, err := c.Call(ctx, "billing.invoice", "2024-01")
package actx
