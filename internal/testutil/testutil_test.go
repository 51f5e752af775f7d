// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestWriteTreeAndListTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"a.el":        "a",
		"lisp/b.el":   "b",
		"empty/":      "",
		"doc/x/y.txt": "y",
	})

	got := ListTree(t, root)
	want := []string{"a.el", "doc/x/y.txt", "lisp/b.el"}
	if !slices.Equal(got, want) {
		t.Errorf("ListTree() = %v, want %v", got, want)
	}

	fi, err := os.Stat(filepath.Join(root, "empty"))
	if err != nil || !fi.IsDir() {
		t.Errorf("empty/ was not created as a directory: %v", err)
	}
	if got := MustReadFile(t, filepath.Join(root, "lisp", "b.el")); got != "b" {
		t.Errorf("MustReadFile() = %q, want %q", got, "b")
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if Exists(filepath.Join(root, "missing")) {
		t.Error("Exists() = true for a missing path")
	}
	MustWriteFile(t, filepath.Join(root, "present"), "")
	if !Exists(filepath.Join(root, "present")) {
		t.Error("Exists() = false for a present path")
	}
}
