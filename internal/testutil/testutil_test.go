// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTree(t *testing.T) {
	t.Parallel()

	root := WriteTree(t, t.TempDir(), map[string]string{
		"a/b/c.sh": "echo c",
		"top.txt":  "top",
	})

	for rel, want := range map[string]string{"a/b/c.sh": "echo c", "top.txt": "top"} {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("ReadFile(%s) error: %v", rel, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", rel, data, want)
		}
	}
}

func TestMustSetenv_RestoresUnset(t *testing.T) {
	const key = "ACTX_TESTUTIL_PROBE"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set", key)
	}

	cleanup := MustSetenv(t, key, "1")
	if got := os.Getenv(key); got != "1" {
		t.Errorf("%s = %q, want %q", key, got, "1")
	}
	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s still set after cleanup", key)
	}
}

func TestMustChdir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	original, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	restore := MustChdir(t, dir)
	if wd, _ := os.Getwd(); wd != dir {
		t.Errorf("Getwd() = %q, want %q", wd, dir)
	}
	restore()
	if wd, _ := os.Getwd(); wd != original {
		t.Errorf("Getwd() after restore = %q, want %q", wd, original)
	}
}

func TestSetHomeDir(t *testing.T) {
	original, had := os.LookupEnv(HomeEnv())
	home := t.TempDir()

	t.Run("sets home", func(t *testing.T) {
		t.Cleanup(SetHomeDir(t, home))
		got, err := os.UserHomeDir()
		if err != nil || got != home {
			t.Errorf("os.UserHomeDir() = %q, %v; want %q", got, err, home)
		}
	})

	got, has := os.LookupEnv(HomeEnv())
	if has != had || got != original {
		t.Errorf("after cleanup %s = %q (set: %v), want %q (set: %v)", HomeEnv(), got, has, original, had)
	}
}
