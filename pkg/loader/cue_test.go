// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/invowk/actx/internal/testutil"
)

func loadCUE(t *testing.T, body string) (any, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.cue")
	testutil.MustWriteFile(t, path, body)
	return NewCUE().Load(context.Background(), path)
}

func TestCUE_ValueCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		args []any
		want any
	}{
		{name: "string", body: `result: "hello from wsx"`, want: "hello from wsx"},
		{name: "list", body: `result: ["a", "b"]`, want: []any{"a", "b"}},
		{name: "struct", body: `result: {ok: true}`, want: map[string]any{"ok": true}},
		{
			name: "args interpolated",
			body: "args: [string]\nresult: \"hello \\(args[0])\"",
			args: []any{"qaz"},
			want: "hello qaz",
		},
		{
			name: "hidden helper fields",
			body: "_greeting: \"hi\"\nresult: _greeting",
			want: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			export, err := loadCUE(t, tt.body)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			v, ok := export.(*Value)
			if !ok {
				t.Fatalf("Load() returned %T, want *Value", export)
			}
			got, err := v.Call(context.Background(), nil, tt.args...)
			if err != nil {
				t.Fatalf("Call() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Call() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCUE_ValueCallMissingArgs(t *testing.T) {
	t.Parallel()

	export, err := loadCUE(t, "args: [string]\nresult: \"hello \\(args[0])\"")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := export.(*Value).Call(context.Background(), nil); err == nil {
		t.Fatal("Call() without args succeeded, want error")
	}
}

func TestCUE_ValueCallConcurrent(t *testing.T) {
	t.Parallel()

	export, err := loadCUE(t, "args: [string]\nresult: \"v-\\(args[0])\"")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	v := export.(*Value)

	var wg sync.WaitGroup
	for _, arg := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Go(func() {
			got, err := v.Call(context.Background(), nil, arg)
			if err != nil {
				t.Errorf("Call(%s) error: %v", arg, err)
				return
			}
			if got != "v-"+arg {
				t.Errorf("Call(%s) = %v, want %q", arg, got, "v-"+arg)
			}
		})
	}
	wg.Wait()
}

func TestCUE_Filter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		path string
		want bool
	}{
		{name: "include hit", body: `include: ["**/domain1/bar.*"]`, path: "/src/other/domain1/bar.sh", want: true},
		{name: "include miss", body: `include: ["**/domain1/bar.*"]`, path: "/src/other/domain1/qwe.sh", want: false},
		{name: "exclude hit", body: `exclude: ["**/controllers/**"]`, path: "/src/a/controllers/user.sh", want: false},
		{name: "exclude miss", body: `exclude: ["**/controllers/**"]`, path: "/src/a/domain1/foo.sh", want: true},
		{name: "pattern hit", body: `pattern: "rfv\\.sh$"`, path: "/src/a/domain2/rfv.sh", want: true},
		{name: "pattern miss", body: `pattern: "rfv\\.sh$"`, path: "/src/a/domain2/edc.sh", want: false},
		{
			name: "include and pattern",
			body: "include: [\"**/domain2/**\"]\npattern: \"edc\"",
			path: "/src/a/domain2/edc.sh",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			export, err := loadCUE(t, tt.body)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			f, ok := export.(*Filter)
			if !ok {
				t.Fatalf("Load() returned %T, want *Filter", export)
			}
			if got := f.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCUE_LoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "neither result nor filter", body: `description: "nothing"`, wantErr: "neither result nor a filter"},
		{name: "unknown field", body: `resutl: "typo"`, wantErr: "resutl"},
		{name: "bad glob", body: `include: ["[unclosed"]`, wantErr: "invalid glob"},
		{name: "bad pattern", body: `pattern: "("`, wantErr: "invalid pattern"},
		{name: "syntax error", body: `result: "unterminated`, wantErr: "module.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadCUE(t, tt.body)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
