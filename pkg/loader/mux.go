// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invowk/actx/pkg/actx"
)

// ErrUnsupported is returned for files no registered loader handles.
var ErrUnsupported = errors.New("unsupported module type")

// Mux dispatches to a loader by file extension. A reference without a
// registered extension that does not exist as given is retried with each
// registered extension in registration order, so "filters/bar" finds
// "filters/bar.cue".
type Mux struct {
	order   []string
	loaders map[string]actx.Loader
}

var _ actx.Loader = (*Mux)(nil)

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{loaders: make(map[string]actx.Loader)}
}

// Default returns a Mux serving shell (.sh) and CUE (.cue) modules.
func Default() *Mux {
	return NewMux().
		Handle(".sh", NewShell()).
		Handle(".cue", NewCUE())
}

// Handle registers l for ext (including the leading dot). Registering an
// extension twice replaces the loader but keeps its lookup position.
func (m *Mux) Handle(ext string, l actx.Loader) *Mux {
	if _, exists := m.loaders[ext]; !exists {
		m.order = append(m.order, ext)
	}
	m.loaders[ext] = l
	return m
}

// Extensions returns the registered extensions in lookup order.
func (m *Mux) Extensions() []string {
	return append([]string(nil), m.order...)
}

// Load implements actx.Loader.
func (m *Mux) Load(ctx context.Context, path string) (any, error) {
	ext := filepath.Ext(path)
	if l, ok := m.loaders[ext]; ok {
		return l.Load(ctx, path)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		for _, candidate := range m.order {
			if info, statErr := os.Stat(path + candidate); statErr == nil && !info.IsDir() {
				return m.loaders[candidate].Load(ctx, path+candidate)
			}
		}
		return nil, fmt.Errorf("no module found at %s", path)
	}
	return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupported, ext, path)
}
