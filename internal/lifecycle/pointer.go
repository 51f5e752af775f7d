// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const pointerPrefix = "gitdir: "

// WritePointer writes worktree/.git as a pointer file referencing meta by
// a path relative to worktree.
func WritePointer(worktree, meta string) error {
	rel, err := filepath.Rel(worktree, meta)
	if err != nil {
		return fmt.Errorf("relate %s to %s: %w", worktree, meta, err)
	}
	content := pointerPrefix + filepath.ToSlash(rel) + "\n"
	return os.WriteFile(filepath.Join(worktree, ".git"), []byte(content), 0o644)
}

// ReadPointer returns the metadata location referenced by worktree/.git,
// made absolute. ok is false when .git is missing or a directory.
func ReadPointer(worktree string) (meta string, ok bool, err error) {
	path := filepath.Join(worktree, ".git")
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if fi.IsDir() {
		return "", false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	target, found := strings.CutPrefix(strings.TrimSpace(string(raw)), pointerPrefix)
	if !found {
		return "", false, fmt.Errorf("%s is not a gitdir pointer", path)
	}
	target = filepath.FromSlash(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(worktree, target)
	}
	return filepath.Clean(target), true, nil
}

// isAbsorbed reports whether worktree/.git is a pointer file.
func isAbsorbed(worktree string) bool {
	fi, err := os.Lstat(filepath.Join(worktree, ".git"))
	return err == nil && fi.Mode().IsRegular()
}
