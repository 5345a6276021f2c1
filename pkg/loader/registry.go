// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/invowk/actx/pkg/actx"
)

// Registry serves exports compiled into the program. Keys are slash-separated
// path suffixes without extension, e.g. "domain1/foo" or "filters/bar"; Load
// picks the longest key that is a whole-segment suffix of the requested path
// with its extension removed.
//
// A Registry lets Go code take part in discovery: the files on disk mark where
// actions live, the registered exports supply their behavior.
type Registry struct {
	mu      sync.RWMutex
	exports map[string]any
}

var _ actx.Loader = (*Registry)(nil)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{exports: make(map[string]any)}
}

// Register stores export under key. Leading and trailing slashes are ignored.
func (r *Registry) Register(key string, export any) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports[strings.Trim(filepath.ToSlash(key), "/")] = export
	return r
}

// Load implements actx.Loader.
func (r *Registry) Load(_ context.Context, path string) (any, error) {
	p := filepath.ToSlash(path)
	p = strings.TrimSuffix(p, filepath.Ext(p))

	r.mu.RLock()
	defer r.mu.RUnlock()
	for {
		if export, ok := r.exports[p]; ok {
			return export, nil
		}
		i := strings.IndexByte(p, '/')
		if i < 0 {
			break
		}
		p = p[i+1:]
	}
	return nil, fmt.Errorf("no registered export for %s", path)
}
