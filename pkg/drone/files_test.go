// SPDX-License-Identifier: MPL-2.0

package drone

import (
	"path/filepath"
	"testing"
)

func TestExcluded(t *testing.T) {
	t.Parallel()

	wt := filepath.FromSlash("/wt")
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"/wt/lisp/a.el", []string{"lisp/a.el"}, true},
		{"/wt/lisp/a.el", []string{"./lisp/a.el"}, true},
		{"/wt/lisp/a.el", []string{"a.el"}, true},
		{"/wt/lisp/a.el", []string{"**/*-x.el"}, false},
		{"/wt/lisp/deep/a-x.el", []string{"**/*-x.el"}, true},
		{"/wt/lisp/a.el", []string{"other/a.el"}, false},
		{"/wt/lisp/a.el", nil, false},
	}
	for _, tt := range tests {
		got := Excluded(wt, filepath.FromSlash(tt.path), tt.patterns)
		if got != tt.want {
			t.Errorf("Excluded(%s, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestFileClassifiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base          string
		generated     bool
		dirLocals     bool
		testOrPkgDesc bool
	}{
		{"magit.el", false, false, false},
		{"magit-autoloads.el", true, false, false},
		{"org-loaddefs.el", true, false, false},
		{".dir-locals.el", false, true, false},
		{".dir-locals-2.el", false, true, false},
		{"magit-pkg.el", false, false, true},
		{"magit-test.el", false, false, true},
		{"magit-tests.el", false, false, true},
		{"magit-testing.el", false, false, false},
	}
	for _, tt := range tests {
		if got := IsGenerated(tt.base); got != tt.generated {
			t.Errorf("IsGenerated(%q) = %v", tt.base, got)
		}
		if got := IsDirLocals(tt.base); got != tt.dirLocals {
			t.Errorf("IsDirLocals(%q) = %v", tt.base, got)
		}
		if got := IsTestOrDescriptor(tt.base); got != tt.testOrPkgDesc {
			t.Errorf("IsTestOrDescriptor(%q) = %v", tt.base, got)
		}
	}
}
