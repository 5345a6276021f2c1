// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
)

const (
	// KindNone is the zero Spec. As a filter it keeps everything.
	KindNone SpecKind = iota
	// KindLiteral holds a ready predicate or a compiled pattern.
	KindLiteral
	// KindPath is a path reference resolved against the base directory.
	KindPath
	// KindPattern is an ECMAScript regular expression tested against the file path.
	KindPattern
	// KindGlob is a doublestar pattern matched against the path relative to the location root.
	KindGlob
)

const (
	prefixPath    = "path"
	prefixPattern = "regexp"
	prefixGlob    = "glob"
)

// tagPrefix matches the "name:" head of a tagged string. Single letters are
// left alone so Windows drive letters read as bare paths.
var tagPrefix = regexp.MustCompile(`^([a-z][a-z0-9]+):`)

type (
	// SpecKind discriminates the variants of Spec.
	SpecKind int

	// Predicate decides whether a file is selected. It receives the absolute,
	// cleaned file path.
	Predicate func(filePath string) bool

	// Spec is a declarative reference: a literal predicate or pattern, a path
	// reference, a pattern reference or a glob reference. Exactly one variant
	// applies; the zero value is KindNone.
	Spec struct {
		kind SpecKind
		ref  string
		pred Predicate
		re   *regexp2.Regexp
	}

	// candidate is one scanned file as seen by the filter engine.
	candidate struct {
		abs string
		rel string
	}

	// filterFunc is a resolved filter.
	filterFunc func(c candidate) bool

	// resolver turns Specs into directories and filters.
	resolver struct {
		baseDir string
		loader  Loader
	}
)

// Path returns a path reference. Relative references resolve against the
// provider base directory, or the working directory when none is set.
func Path(ref string) Spec { return Spec{kind: KindPath, ref: ref} }

// Pattern returns a pattern reference compiled as an ECMAScript regular expression.
func Pattern(expr string) Spec { return Spec{kind: KindPattern, ref: expr} }

// Glob returns a doublestar glob reference.
func Glob(pattern string) Spec { return Spec{kind: KindGlob, ref: pattern} }

// Match returns a literal predicate spec.
func Match(p Predicate) Spec { return Spec{kind: KindLiteral, pred: p} }

// Regexp returns a literal compiled-pattern spec.
func Regexp(re *regexp2.Regexp) Spec { return Spec{kind: KindLiteral, re: re} }

// ParseSpec reads the tagged-string form: "path:<ref>", "regexp:<expr>" or
// "glob:<pattern>". An untagged string is a bare path reference; any other tag
// is a ConfigurationError.
func ParseSpec(s string) (Spec, error) {
	m := tagPrefix.FindStringSubmatch(s)
	if m == nil {
		if strings.TrimSpace(s) == "" {
			return Spec{}, &ConfigurationError{Field: "spec", Reason: "empty reference"}
		}
		return Path(s), nil
	}
	rest := s[len(m[0]):]
	if rest == "" {
		return Spec{}, &ConfigurationError{Field: "spec", Reason: fmt.Sprintf("empty %q reference", m[1])}
	}
	switch m[1] {
	case prefixPath:
		return Path(rest), nil
	case prefixPattern:
		return Pattern(rest), nil
	case prefixGlob:
		return Glob(rest), nil
	default:
		return Spec{}, &ConfigurationError{Field: "spec", Reason: fmt.Sprintf("unknown reference prefix %q in %q", m[1], s)}
	}
}

// MustParseSpec is like ParseSpec but panics on error.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Kind returns the variant tag.
func (s Spec) Kind() SpecKind { return s.kind }

// IsZero reports whether s is the zero Spec.
func (s Spec) IsZero() bool { return s.kind == KindNone }

// Ref returns the reference text of a path, pattern or glob Spec.
func (s Spec) Ref() string { return s.ref }

// String returns the tagged-string form.
func (s Spec) String() string {
	switch s.kind {
	case KindPath:
		return prefixPath + ":" + s.ref
	case KindPattern:
		return prefixPattern + ":" + s.ref
	case KindGlob:
		return prefixGlob + ":" + s.ref
	case KindLiteral:
		if s.re != nil {
			return prefixPattern + ":" + s.re.String()
		}
		return "<predicate>"
	default:
		return "<none>"
	}
}

// path resolves a reference against the base directory or the working
// directory. The result is always absolute, also for a relative base directory.
func (r *resolver) path(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	base := r.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(filepath.Join(base, ref))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	return abs, nil
}

// dir resolves a location source to an absolute directory path. Existence is
// checked by the scanner so that a missing directory reads as a discovery failure.
func (r *resolver) dir(field string, spec Spec) (string, error) {
	if spec.kind != KindPath {
		return "", &ConfigurationError{Field: field, Spec: spec, Reason: "source must be a path reference"}
	}
	dir, err := r.path(spec.ref)
	if err != nil {
		return "", &ConfigurationError{Field: field, Spec: spec, Reason: "cannot resolve path", Cause: err}
	}
	return dir, nil
}

// filter resolves a filter Spec. A zero Spec yields a nil filterFunc, which
// callers read as "no opinion".
func (r *resolver) filter(ctx context.Context, field string, spec Spec) (filterFunc, error) {
	switch spec.kind {
	case KindNone:
		return nil, nil
	case KindLiteral:
		if spec.re != nil {
			return regexpFilter(spec.re), nil
		}
		if spec.pred == nil {
			return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "literal predicate is nil"}
		}
		return predicateFilter(spec.pred), nil
	case KindPattern:
		re, err := regexp2.Compile(spec.ref, regexp2.ECMAScript)
		if err != nil {
			return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "invalid pattern", Cause: err}
		}
		return regexpFilter(re), nil
	case KindGlob:
		if !doublestar.ValidatePattern(spec.ref) {
			return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "invalid glob", Cause: doublestar.ErrBadPattern}
		}
		pattern := spec.ref
		return func(c candidate) bool {
			matched, err := doublestar.Match(pattern, c.rel)
			return err == nil && matched
		}, nil
	case KindPath:
		return r.module(ctx, field, spec)
	default:
		return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "unknown spec kind"}
	}
}

// module loads a predicate module through the loader.
func (r *resolver) module(ctx context.Context, field string, spec Spec) (filterFunc, error) {
	if r.loader == nil {
		return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "no loader configured for predicate modules"}
	}
	path, err := r.path(spec.ref)
	if err != nil {
		return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "cannot resolve path", Cause: err}
	}
	export, err := r.loader.Load(ctx, path)
	if err != nil {
		return nil, &ConfigurationError{Field: field, Spec: spec, Reason: "cannot load predicate module", Cause: err}
	}
	pred, ok := asPredicate(export)
	if !ok {
		return nil, &ConfigurationError{Field: field, Spec: spec, Reason: fmt.Sprintf("module exports %T, want a predicate", export)}
	}
	return predicateFilter(pred), nil
}

// asPredicate converts a module export into a Predicate.
func asPredicate(v any) (Predicate, bool) {
	switch p := v.(type) {
	case Predicate:
		return p, p != nil
	case func(string) bool:
		return p, p != nil
	case interface{ Match(filePath string) bool }:
		return p.Match, true
	default:
		return nil, false
	}
}

func predicateFilter(p Predicate) filterFunc {
	return func(c candidate) bool { return p(c.abs) }
}

// regexpFilter tests the absolute path. A match error (e.g. timeout) is a miss.
func regexpFilter(re *regexp2.Regexp) filterFunc {
	return func(c candidate) bool {
		matched, err := re.MatchString(c.abs)
		return err == nil && matched
	}
}
