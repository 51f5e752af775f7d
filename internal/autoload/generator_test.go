// SPDX-License-Identifier: MPL-2.0

package autoload

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/testutil"
	"github.com/droneyard/droneyard/pkg/drone"
)

const magitSource = `;;; magit.el --- A Git porcelain  -*- lexical-binding: t -*-

;;;###autoload
(defun magit-status ()
  "Show the status."
  (interactive))

(provide 'magit)
`

func TestEligible(t *testing.T) {
	t.Parallel()

	wt := t.TempDir()
	testutil.WriteTree(t, wt, map[string]string{
		"lisp/magit.el":           "",
		"lisp/magit-extra.el":     "",
		"lisp/magit-pkg.el":       "",
		"lisp/magit-tests.el":     "",
		"lisp/magit-autoloads.el": "",
		"lisp/magit-loaddefs.el":  "",
		"lisp/.dir-locals.el":     "",
		"lisp/magit-libgit.el":    "",
		"lisp/notes.txt":          "",
		"lisp/sub/nested.el":      "",
		"ext/magit-ext.el":        "",
	})

	files, err := Eligible(Request{
		Drone:       "magit",
		Worktree:    wt,
		SearchPaths: []string{filepath.Join(wt, "lisp"), filepath.Join(wt, "ext"), filepath.Join(wt, "missing")},
		Exclude:     []string{"lisp/magit-libgit.el"},
	})
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}

	want := []string{
		filepath.Join(wt, "lisp", "magit-extra.el"),
		filepath.Join(wt, "lisp", "magit.el"),
		filepath.Join(wt, "ext", "magit-ext.el"),
	}
	if !slices.Equal(files, want) {
		t.Errorf("Eligible() = %v, want %v", files, want)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	t.Parallel()

	wt := t.TempDir()
	testutil.WriteTree(t, wt, map[string]string{
		"lisp/magit.el":    magitSource,
		"ext/magit-ext.el": ";;;###autoload\n(defun magit-ext () \"Ext.\" nil)\n",
	})
	req := Request{
		Drone:       "magit",
		Worktree:    wt,
		SearchPaths: []string{filepath.Join(wt, "lisp"), filepath.Join(wt, "ext")},
	}

	var invalidated []string
	gen := &Generator{Invalidator: InvalidatorFunc(func(path string) error {
		invalidated = append(invalidated, path)
		return nil
	})}

	first, err := gen.Generate(t.Context(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if want := filepath.Join(wt, "lisp", "magit-autoloads.el"); first != want {
		t.Fatalf("Generate() path = %q, want %q", first, want)
	}
	firstContent := testutil.MustReadFile(t, first)

	second, err := gen.Generate(t.Context(), req)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if secondContent := testutil.MustReadFile(t, second); secondContent != firstContent {
		t.Errorf("regeneration changed the file:\n%s\n---\n%s", firstContent, secondContent)
	}

	for _, want := range []string{
		"(add-to-list 'load-path (directory-file-name",
		";;; Generated autoloads from magit.el",
		`(autoload 'magit-status "magit" "Show the status.`,
		";;; Generated autoloads from ../ext/magit-ext.el",
		`(autoload 'magit-ext "../ext/magit-ext" "Ext.`,
		"(provide 'magit-autoloads)",
	} {
		if !strings.Contains(firstContent, want) {
			t.Errorf("autoloads file lacks %q", want)
		}
	}

	var generated []string
	for _, f := range testutil.ListTree(t, wt) {
		if drone.IsGenerated(filepath.Base(f)) {
			generated = append(generated, f)
		}
	}
	if want := []string{"lisp/magit-autoloads.el"}; !slices.Equal(generated, want) {
		t.Errorf("generated files = %v, want %v", generated, want)
	}
	if len(invalidated) != 2 || invalidated[0] != first {
		t.Errorf("invalidated = %v, want the autoloads path twice", invalidated)
	}
}

func TestGenerate_ScanFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	wt := t.TempDir()
	testutil.WriteTree(t, wt, map[string]string{
		"broken.el":           ";;;###autoload\n(defun broken (\n",
		"broken-autoloads.el": ";; stale\n",
	})

	_, err := (&Generator{}).Generate(t.Context(), Request{
		Drone:       "broken",
		Worktree:    wt,
		SearchPaths: []string{wt},
	})
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("Generate() error = %v, want *ScanError", err)
	}
	if testutil.Exists(filepath.Join(wt, "broken-autoloads.el")) {
		t.Error("autoloads file left in place after a scan failure")
	}
	if got := testutil.ListTree(t, wt); !slices.Equal(got, []string{"broken.el"}) {
		t.Errorf("tree after failure = %v, want only the source", got)
	}
}
