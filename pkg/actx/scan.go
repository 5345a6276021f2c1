// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// Walker enumerates regular files under a directory. It must report an
	// unreadable or missing root as an error; an empty directory produces no
	// calls to fn. Returning an error from fn stops the walk with that error.
	Walker interface {
		Walk(ctx context.Context, root string, fn func(path string) error) error
	}

	// DirWalker walks the local filesystem in lexical order.
	DirWalker struct{}

	// Entry is one discovered action: where it lives and which location won it.
	Entry struct {
		// Domain is the first path segment beneath the location's base directory.
		Domain string
		// Name is the file name without its extension.
		Name string
		// Source is the absolute path of the source file.
		Source string
		// Location is the declared index of the location the entry came from.
		Location int
	}

	// resolvedLocation is a Location after its Specs have been resolved.
	resolvedLocation struct {
		index int
		dir   string
		sel   selector
	}
)

// Walk implements Walker using filepath.WalkDir.
func (DirWalker) Walk(ctx context.Context, root string, fn func(path string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// Key returns the "domain.name" form used by Context.Call.
func (e Entry) Key() string { return e.Domain + "." + e.Name }

// scan walks one location and returns its surviving entries in walk order.
// Files directly inside the base directory belong to no domain and are skipped.
func scan(ctx context.Context, w Walker, loc resolvedLocation, logger *log.Logger) ([]Entry, error) {
	var entries []Entry
	err := w.Walk(ctx, loc.dir, func(path string) error {
		abs := filepath.Clean(path)
		rel, err := filepath.Rel(loc.dir, abs)
		if err != nil {
			return err
		}
		domain, name, ok := deriveNames(rel)
		if !ok {
			logger.Debug("skipping file outside any domain", "location", loc.index, "path", abs)
			return nil
		}
		if !loc.sel.keep(candidate{abs: abs, rel: filepath.ToSlash(rel)}) {
			return nil
		}
		entries = append(entries, Entry{Domain: domain, Name: name, Source: abs, Location: loc.index})
		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Location: loc.index, Dir: loc.dir, Cause: err}
	}
	logger.Debug("scanned location", "location", loc.index, "dir", loc.dir, "actions", len(entries))
	return entries, nil
}

// deriveNames splits a base-relative path into its domain and action name.
// ok is false for files at the root and for names that are empty once the
// extension is removed (e.g. ".keep").
func deriveNames(rel string) (domain, name string, ok bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == "" || parts[0] == ".." {
		return "", "", false
	}
	base := parts[len(parts)-1]
	name = strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return "", "", false
	}
	return parts[0], name, true
}
