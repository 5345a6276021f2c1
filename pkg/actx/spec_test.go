// SPDX-License-Identifier: MPL-2.0

package actx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dlclark/regexp2"
)

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantKind SpecKind
		wantRef  string
		wantErr  bool
	}{
		{input: "actions", wantKind: KindPath, wantRef: "actions"},
		{input: "./src/actions", wantKind: KindPath, wantRef: "./src/actions"},
		{input: "path:filters/bar", wantKind: KindPath, wantRef: "filters/bar"},
		{input: "regexp:rfv\\.sh$", wantKind: KindPattern, wantRef: "rfv\\.sh$"},
		{input: "glob:**/*.sh", wantKind: KindGlob, wantRef: "**/*.sh"},
		{input: `C:\actions`, wantKind: KindPath, wantRef: `C:\actions`},
		{input: "module:foo", wantErr: true},
		{input: "path:", wantErr: true},
		{input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			spec, err := ParseSpec(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("ParseSpec(%q) error = %v, want ErrConfiguration", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q) error: %v", tt.input, err)
			}
			if spec.Kind() != tt.wantKind || spec.Ref() != tt.wantRef {
				t.Errorf("ParseSpec(%q) = (%v, %q), want (%v, %q)", tt.input, spec.Kind(), spec.Ref(), tt.wantKind, tt.wantRef)
			}
		})
	}
}

func TestSpec_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"path:a/b", "regexp:x+", "glob:**/y"} {
		if got := MustParseSpec(s).String(); got != s {
			t.Errorf("MustParseSpec(%q).String() = %q", s, got)
		}
	}
	if !(Spec{}).IsZero() {
		t.Error("zero Spec is not IsZero")
	}
}

func TestResolver_Filter(t *testing.T) {
	t.Parallel()

	c := candidate{abs: "/src/actions/domain2/rfv.sh", rel: "domain2/rfv.sh"}
	r := &resolver{}

	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{name: "pattern hit", spec: Pattern(`rfv\.sh$`), want: true},
		{name: "pattern miss", spec: Pattern(`edc`), want: false},
		{name: "ecmascript lookahead", spec: Pattern(`domain2/(?!edc)`), want: true},
		{name: "glob relative", spec: Glob("domain2/*.sh"), want: true},
		{name: "glob sees relative path only", spec: Glob("src/**"), want: false},
		{name: "predicate", spec: Match(func(p string) bool { return filepath.Base(p) == "rfv.sh" }), want: true},
		{name: "compiled regexp", spec: Regexp(regexp2.MustCompile(`^/src/`, regexp2.ECMAScript)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := r.filter(context.Background(), "filter", tt.spec)
			if err != nil {
				t.Fatalf("filter() error: %v", err)
			}
			if got := f(c); got != tt.want {
				t.Errorf("filter()(%s) = %v, want %v", c.rel, got, tt.want)
			}
		})
	}
}

func TestResolver_FilterErrors(t *testing.T) {
	t.Parallel()

	notPredicate := LoaderFunc(func(context.Context, string) (any, error) { return 42, nil })
	failing := LoaderFunc(func(context.Context, string) (any, error) { return nil, errors.New("boom") })

	tests := []struct {
		name   string
		loader Loader
		spec   Spec
	}{
		{name: "bad pattern", spec: Pattern("(")},
		{name: "bad glob", spec: Glob("[")},
		{name: "nil predicate", spec: Match(nil)},
		{name: "module without loader", spec: Path("filters/bar")},
		{name: "module load failure", loader: failing, spec: Path("filters/bar")},
		{name: "module not a predicate", loader: notPredicate, spec: Path("filters/bar")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &resolver{baseDir: "/base", loader: tt.loader}
			_, err := r.filter(context.Background(), "locations[0].filter", tt.spec)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("filter() error = %v, want *ConfigurationError", err)
			}
			if cfgErr.Field != "locations[0].filter" {
				t.Errorf("Field = %q, want %q", cfgErr.Field, "locations[0].filter")
			}
		})
	}
}

func TestResolver_FilterModule(t *testing.T) {
	t.Parallel()

	var loadedPath string
	loader := LoaderFunc(func(_ context.Context, path string) (any, error) {
		loadedPath = path
		return func(p string) bool { return filepath.Base(p) == "bar.sh" }, nil
	})
	r := &resolver{baseDir: "/base", loader: loader}

	f, err := r.filter(context.Background(), "filter", Path("filters/bar"))
	if err != nil {
		t.Fatalf("filter() error: %v", err)
	}
	if want := filepath.Join("/base", "filters", "bar"); loadedPath != want {
		t.Errorf("loaded %q, want %q", loadedPath, want)
	}
	if !f(candidate{abs: "/x/domain1/bar.sh"}) || f(candidate{abs: "/x/domain1/qwe.sh"}) {
		t.Error("module predicate not applied to the absolute path")
	}
}

func TestResolver_Dir(t *testing.T) {
	t.Parallel()

	r := &resolver{baseDir: "/base"}
	if got, err := r.dir("src", Path("actions")); err != nil || got != filepath.Join("/base", "actions") {
		t.Errorf("dir(actions) = %q, %v", got, err)
	}
	if got, err := r.dir("src", Path("/abs/./actions")); err != nil || got != filepath.Clean("/abs/actions") {
		t.Errorf("dir(/abs/./actions) = %q, %v", got, err)
	}
	if _, err := r.dir("src", Glob("**")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("dir(glob) error = %v, want ErrConfiguration", err)
	}
}
