// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

// NativeAbsorbVersion is the first git release with
// "git submodule absorbgitdirs".
const NativeAbsorbVersion = "v2.12.0"

type (
	// Absorber moves a drone's metadata out of its worktree into the host's
	// per-drone metadata store and links the two.
	Absorber interface {
		Absorb(ctx context.Context, reg *registry.Registry, name drone.Name, worktree string) error
	}

	nativeAbsorber struct{}

	manualAbsorber struct{}
)

// SelectAbsorber returns the absorber suited to a git of the given
// canonical version.
func SelectAbsorber(version string) Absorber {
	if vcs.AtLeast(version, NativeAbsorbVersion) {
		return nativeAbsorber{}
	}
	return manualAbsorber{}
}

// DetectAbsorber asks git for its version and selects an absorber.
func DetectAbsorber(ctx context.Context, gw *vcs.Gateway) (Absorber, error) {
	version, err := gw.Version(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("selected absorb strategy", "git", version, "native", vcs.AtLeast(version, NativeAbsorbVersion))
	return SelectAbsorber(version), nil
}

func (nativeAbsorber) Absorb(ctx context.Context, reg *registry.Registry, name drone.Name, worktree string) error {
	rel, err := reg.RelPath(worktree)
	if err != nil {
		return err
	}
	_, err = reg.Gateway().RunOrFail(ctx, "absorb "+string(name)+" metadata", "submodule", "absorbgitdirs", "--", rel)
	return err
}

func (manualAbsorber) Absorb(ctx context.Context, reg *registry.Registry, name drone.Name, worktree string) error {
	dotGit := filepath.Join(worktree, ".git")
	fi, err := os.Lstat(dotGit)
	if err != nil {
		return fmt.Errorf("absorb %s metadata: %w", name, err)
	}
	if !fi.IsDir() {
		return nil
	}

	meta := reg.MetadataPath(name)
	if _, err := os.Lstat(meta); err == nil {
		return &AlreadyExistsError{Name: name, Path: meta}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(meta), 0o755); err != nil {
		return err
	}
	if err := os.Rename(dotGit, meta); err != nil {
		return fmt.Errorf("move %s metadata: %w", name, err)
	}
	return link(ctx, reg.Gateway(), worktree, meta)
}

// link points worktree at the metadata store meta and back.
func link(ctx context.Context, gw *vcs.Gateway, worktree, meta string) error {
	if err := WritePointer(worktree, meta); err != nil {
		return err
	}
	back, err := filepath.Rel(meta, worktree)
	if err != nil {
		return err
	}
	_, err = gw.RunOrFail(ctx, "set metadata worktree",
		"config", "--file", filepath.Join(meta, "config"), "core.worktree", filepath.ToSlash(back))
	return err
}
