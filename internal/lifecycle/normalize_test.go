// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/testutil"
)

func TestNormalizeRegistry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitmodules")
	testutil.MustWriteFile(t, path, `[submodule "zeta"]
	path = lib/zeta
	url = https://example.com/zeta.git
[submodule "alpha"]
	path = lib/alpha
	url = https://example.com/alpha.git
	load-path = lisp
	load-path = extensions
[submodule "mid.el"]
	path = lib/mid.el
	url = https://example.com/mid.git
`)

	if err := NormalizeRegistry(path); err != nil {
		t.Fatalf("NormalizeRegistry() error = %v", err)
	}
	got := testutil.MustReadFile(t, path)

	order := []string{`"alpha"`, `"mid.el"`, `"zeta"`}
	last := -1
	for _, s := range order {
		i := strings.Index(got, s)
		if i <= last {
			t.Fatalf("sections out of order:\n%s", got)
		}
		last = i
	}
	if strings.Index(got, "lisp") > strings.Index(got, "extensions") {
		t.Errorf("repeated values reordered:\n%s", got)
	}

	// A sorted file is left alone.
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := NormalizeRegistry(path); err != nil {
		t.Fatalf("second NormalizeRegistry() error = %v", err)
	}
	if testutil.MustReadFile(t, path) != got {
		t.Error("second normalization changed the file")
	}
	fi2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(fi, fi2) {
		t.Error("second normalization replaced the file")
	}
}

func TestNormalizeRegistry_Missing(t *testing.T) {
	t.Parallel()

	if err := NormalizeRegistry(filepath.Join(t.TempDir(), ".gitmodules")); err == nil {
		t.Error("NormalizeRegistry() on a missing file returned nil")
	}
}
