// SPDX-License-Identifier: MPL-2.0

package drone

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// SourceExt is the extension of Emacs Lisp sources.
	SourceExt = ".el"
	// CompiledExt is the extension of byte-compiled files.
	CompiledExt = ".elc"
	// AutoloadsSuffix completes a drone name into its autoloads file name.
	AutoloadsSuffix = "-autoloads.el"
	// LoaddefsSuffix marks generated loaddefs files.
	LoaddefsSuffix = "-loaddefs.el"
)

// IsGenerated reports whether base names a generated autoloads or
// loaddefs file.
func IsGenerated(base string) bool {
	return strings.HasSuffix(base, AutoloadsSuffix) || strings.HasSuffix(base, LoaddefsSuffix)
}

// IsDirLocals reports whether base names a directory-local settings file.
func IsDirLocals(base string) bool {
	return strings.HasPrefix(base, ".dir-locals") && strings.HasSuffix(base, SourceExt)
}

// IsTestOrDescriptor reports whether base names a package descriptor
// (*-pkg.el) or a test file (*-test.el, *-tests.el).
func IsTestOrDescriptor(base string) bool {
	for _, suffix := range []string{"-pkg.el", "-test.el", "-tests.el"} {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// Excluded reports whether path matches one of patterns, which are
// doublestar globs relative to worktree. A pattern without a slash also
// matches the base name anywhere in the tree.
func Excluded(worktree, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(worktree, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
