// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"

	"github.com/invowk/actx/pkg/actx"
	"github.com/invowk/actx/pkg/cueutil"
)

//go:embed module_schema.cue
var moduleSchema []byte

type (
	// CUE loads CUE modules: data actions (a `result` field) and filter
	// modules (`include`, `exclude`, `pattern`).
	CUE struct {
		// MaxFileSize overrides cueutil.DefaultMaxFileSize when positive.
		MaxFileSize int64
	}

	// Value is a CUE data action. Each call fills `args` with the call
	// arguments and decodes `result`.
	Value struct {
		path string

		mu      sync.Mutex
		unified cue.Value
	}

	// Filter is a CUE filter module. A path is kept when it matches at least
	// one include glob (or no includes are given), no exclude glob, and the
	// pattern when one is set. Globs see the slash-separated absolute path
	// without its leading slash or volume name.
	Filter struct {
		path    string
		include []string
		exclude []string
		pattern *regexp2.Regexp
	}

	filterFields struct {
		Include []string `json:"include"`
		Exclude []string `json:"exclude"`
		Pattern string   `json:"pattern"`
	}
)

var (
	_ actx.Loader   = (*CUE)(nil)
	_ actx.Callable = (*Value)(nil)
)

var (
	resultPath = cue.ParsePath("result")
	argsPath   = cue.ParsePath("args")
)

// NewCUE creates a CUE module loader.
func NewCUE() *CUE { return &CUE{} }

// Load compiles the module at path against the module schema.
func (l *CUE) Load(_ context.Context, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	opts := []cueutil.Option{cueutil.WithFilename(path)}
	if l.MaxFileSize > 0 {
		opts = append(opts, cueutil.WithMaxFileSize(l.MaxFileSize))
	}
	unified, err := cueutil.Compile(moduleSchema, data, "#Module", opts...)
	if err != nil {
		return nil, err
	}

	if unified.LookupPath(resultPath).Exists() {
		return &Value{path: path, unified: unified}, nil
	}

	var fields filterFields
	if err := unified.Decode(&fields); err != nil {
		return nil, cueutil.WrapError(err, path)
	}
	if len(fields.Include) == 0 && len(fields.Exclude) == 0 && fields.Pattern == "" {
		return nil, fmt.Errorf("%s: module defines neither result nor a filter", path)
	}
	return newFilter(path, fields)
}

func newFilter(path string, fields filterFields) (*Filter, error) {
	for _, pat := range append(append([]string(nil), fields.Include...), fields.Exclude...) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%s: invalid glob %q: %w", path, pat, doublestar.ErrBadPattern)
		}
	}
	f := &Filter{path: path, include: fields.Include, exclude: fields.Exclude}
	if fields.Pattern != "" {
		re, err := regexp2.Compile(fields.Pattern, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid pattern %q: %w", path, fields.Pattern, err)
		}
		f.pattern = re
	}
	return f, nil
}

// Call implements actx.Callable.
func (v *Value) Call(_ context.Context, _ *actx.Context, args ...any) (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	list := append([]any{}, args...)
	filled := v.unified.FillPath(argsPath, list)
	result := filled.LookupPath(resultPath)
	if err := result.Validate(cue.Concrete(true)); err != nil {
		return nil, cueutil.WrapError(err, v.path)
	}
	var out any
	if err := result.Decode(&out); err != nil {
		return nil, cueutil.WrapError(err, v.path)
	}
	return out, nil
}

// Path returns the module file path.
func (v *Value) Path() string { return v.path }

// Match implements the predicate export shape.
func (f *Filter) Match(filePath string) bool {
	target := strings.TrimPrefix(filepath.ToSlash(strings.TrimPrefix(filePath, filepath.VolumeName(filePath))), "/")
	if len(f.include) > 0 && !anyMatch(f.include, target) {
		return false
	}
	if anyMatch(f.exclude, target) {
		return false
	}
	if f.pattern != nil {
		matched, err := f.pattern.MatchString(filePath)
		return err == nil && matched
	}
	return true
}

func anyMatch(patterns []string, target string) bool {
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, target); matchErr == nil && matched {
			return true
		}
	}
	return false
}
