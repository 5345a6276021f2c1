// SPDX-License-Identifier: MPL-2.0

package actx_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/invowk/actx/internal/testutil"
	"github.com/invowk/actx/pkg/actx"
	"github.com/invowk/actx/pkg/loader"
)

func appDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "app", "src"))
	if err != nil {
		t.Fatalf("failed to resolve testdata: %v", err)
	}
	return dir
}

func setup(t *testing.T, locations []actx.Location, opts ...actx.Option) *actx.Provider {
	t.Helper()
	opts = append([]actx.Option{actx.WithLoader(loader.Default()), actx.WithLogger(log.New(io.Discard))}, opts...)
	p, err := actx.Setup(context.Background(), locations, opts...)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	return p
}

func callLines(t *testing.T, c *actx.Context, key string) []string {
	t.Helper()
	v, err := c.Call(context.Background(), key)
	if err != nil {
		t.Fatalf("Call(%s) error: %v", key, err)
	}
	return strings.Split(v.(string), "\n")
}

func TestController_SingleLocation(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	c := setup(t, []actx.Location{actx.At(filepath.Join(src, "actions"))}).CreateContext()

	want := []string{
		"hello from foo",
		"hello from qaz",
		"hello from bar",
		"hello from edc",
		"hello from rfv",
		"hello from wsx",
	}
	if got := callLines(t, c, "controllers.account"); !slices.Equal(got, want) {
		t.Errorf("controllers.account = %q, want %q", got, want)
	}
	if c.Has("controllers", "user") {
		t.Error("controllers.user discovered without its location")
	}
}

func TestController_MultipleLocations(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	c := setup(t, []actx.Location{
		actx.At(filepath.Join(src, "actions")),
		actx.At(filepath.Join(src, "other-actions")),
	}).CreateContext()

	want := []string{
		"hello from foo",
		"hello from qaz",
		"hello from bar (other actions)",
		"hello from qwe",
		"hello from edc",
		"hello from rfv",
		"hello from wsx",
	}
	if got := callLines(t, c, "controllers.user"); !slices.Equal(got, want) {
		t.Errorf("controllers.user = %q, want %q", got, want)
	}
	if got := callLines(t, c, "controllers.account"); got[2] != "hello from bar (other actions)" {
		t.Errorf("controllers.account bar = %q, want the overriding action", got[2])
	}
}

func assertFiltered(t *testing.T, p *actx.Provider) {
	t.Helper()
	c := p.CreateContext()

	if got, want := c.Domains(), []string{"domain1", "domain2"}; !slices.Equal(got, want) {
		t.Fatalf("Domains() = %v, want %v", got, want)
	}
	d1, _ := c.Domain("domain1")
	if got, want := d1.Names(), []string{"bar", "foo"}; !slices.Equal(got, want) {
		t.Errorf("domain1 = %v, want %v", got, want)
	}
	d2, _ := c.Domain("domain2")
	if got, want := d2.Names(), []string{"rfv"}; !slices.Equal(got, want) {
		t.Errorf("domain2 = %v, want %v", got, want)
	}

	for key, want := range map[string]string{
		"domain1.foo": "hello from foo",
		"domain1.bar": "hello from bar (other actions)",
		"domain2.rfv": "hello from rfv",
	} {
		got, err := c.Call(context.Background(), key)
		if err != nil || got != want {
			t.Errorf("Call(%s) = %v, %v, want %q", key, got, err, want)
		}
	}
}

func TestFilters_AbsoluteLocations(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	p := setup(t, []actx.Location{
		{Source: actx.Path(filepath.Join(src, "actions")), Filter: actx.Pattern(`foo\.sh$`)},
		{Source: actx.Path(filepath.Join(src, "other-actions")), Filter: actx.Path(filepath.Join(src, "bar-filter.cue"))},
		{Source: actx.Path(filepath.Join(src, "actions")), Filter: actx.MustParseSpec("regexp:rfv")},
	})
	assertFiltered(t, p)
}

func TestFilters_BaseDirRelative(t *testing.T) {
	t.Parallel()

	p := setup(t, []actx.Location{
		{Source: actx.Path("actions"), Filter: actx.Glob("domain1/foo.*")},
		{Source: actx.Path("other-actions"), Filter: actx.MustParseSpec("path:bar-filter")},
		{Source: actx.Path("actions"), Filter: actx.MustParseSpec("regexp:rfv")},
	}, actx.WithBaseDir(appDir(t)))
	assertFiltered(t, p)
}

// Not parallel: resolves a base directory relative to the working directory.
func TestFilters_RelativeBaseDirSeesAbsolutePaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	record := func(path string) bool {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, path)
		return true
	}

	p := setup(t, []actx.Location{
		{Source: actx.Path("actions"), Filter: actx.Match(record)},
	}, actx.WithBaseDir(filepath.Join("testdata", "app", "src")), actx.WithFileFilter(actx.Match(func(path string) bool {
		return !record(path)
	})))

	if len(seen) == 0 {
		t.Fatal("filters saw no files")
	}
	for _, path := range seen {
		if !filepath.IsAbs(path) {
			t.Errorf("filter saw relative path %q", path)
		}
	}
	for _, domain := range p.Domains() {
		for _, e := range p.Entries(domain) {
			if !filepath.IsAbs(e.Source) {
				t.Errorf("%s.Source = %q, want an absolute path", e.Key(), e.Source)
			}
			if !strings.HasPrefix(e.Source, appDir(t)) {
				t.Errorf("%s.Source = %q, want it under %s", e.Key(), e.Source, appDir(t))
			}
		}
	}
}

// Not parallel: changes the working directory.
func TestFilters_WorkingDirRelative(t *testing.T) {
	src := appDir(t)
	t.Cleanup(testutil.MustChdir(t, src))

	p := setup(t, []actx.Location{
		{Source: actx.MustParseSpec("actions"), Filter: actx.MustParseSpec(`regexp:foo\.sh$`)},
		{Source: actx.MustParseSpec("./other-actions"), Filter: actx.MustParseSpec("path:./bar-filter.cue")},
		{Source: actx.MustParseSpec("actions"), Filter: actx.MustParseSpec("regexp:rfv")},
	})
	assertFiltered(t, p)
}

func TestFileFilter(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	p := setup(t,
		[]actx.Location{actx.At(filepath.Join(src, "actions")), actx.At(filepath.Join(src, "other-actions"))},
		actx.WithFileFilter(actx.Glob("controllers/**")),
	)
	c := p.CreateContext()
	if _, ok := c.Domain("controllers"); ok {
		t.Error("controllers survived the file filter")
	}
	if !c.Has("domain1", "qwe") {
		t.Error("domain1.qwe missing")
	}
}

func TestInlineOverrides(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	p := setup(t, []actx.Location{actx.At(filepath.Join(src, "actions"))})
	c := p.CreateContext(
		actx.WithFunction("domain1", "bar", "barv"),
		actx.WithProperty("qaz", "qazv"),
	)

	if got, err := c.Call(context.Background(), "domain1.bar"); err != nil || got != "barv" {
		t.Errorf("Call(domain1.bar) = %v, %v, want barv", got, err)
	}
	if got := callLines(t, c, "controllers.account"); got[2] != "barv" {
		t.Errorf("controllers.account bar = %q, want the inline value", got[2])
	}
	if v, ok := c.Property("qaz"); !ok || v != "qazv" {
		t.Errorf("Property(qaz) = %v, %v", v, ok)
	}
	if p.Loaded("domain1", "bar") {
		t.Error("shadowed discovered action was loaded")
	}
}

func TestInlineOnly(t *testing.T) {
	t.Parallel()

	c := setup(t, nil).CreateContext(actx.WithFunction("domain1", "bar", "barv"))
	if !c.Empty() {
		t.Error("Empty() = false without locations")
	}
	if got, err := c.Call(context.Background(), "domain1.bar"); err != nil || got != "barv" {
		t.Errorf("Call(domain1.bar) = %v, %v, want barv", got, err)
	}
}

func TestLoadFailureIsScoped(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"d/good.sh":   `echo good`,
		"d/broken.sh": `if then (`,
		"d/notes.txt": `plain text`,
	})
	c := setup(t, []actx.Location{actx.At(root)}).CreateContext()

	for _, key := range []string{"d.broken", "d.notes"} {
		_, err := c.Call(context.Background(), key)
		var loadErr *actx.LoadError
		if !errors.As(err, &loadErr) {
			t.Errorf("Call(%s) error = %v, want *actx.LoadError", key, err)
		}
	}
	if got, err := c.Call(context.Background(), "d.good"); err != nil || got != "good" {
		t.Errorf("Call(d.good) = %v, %v", got, err)
	}
}

func TestSetup_MissingLocation(t *testing.T) {
	t.Parallel()

	_, err := actx.Setup(context.Background(),
		[]actx.Location{actx.At(filepath.Join(t.TempDir(), "missing"))},
		actx.WithLoader(loader.Default()), actx.WithLogger(log.New(io.Discard)))
	if !errors.Is(err, actx.ErrDiscovery) {
		t.Fatalf("Setup() error = %v, want ErrDiscovery", err)
	}
}

func TestSetup_FilterModuleMissing(t *testing.T) {
	t.Parallel()

	src := appDir(t)
	_, err := actx.Setup(context.Background(),
		[]actx.Location{{Source: actx.Path(filepath.Join(src, "actions")), Filter: actx.Path("no-such-filter")}},
		actx.WithBaseDir(src), actx.WithLoader(loader.Default()), actx.WithLogger(log.New(io.Discard)))
	if !errors.Is(err, actx.ErrConfiguration) {
		t.Fatalf("Setup() error = %v, want ErrConfiguration", err)
	}
}
