// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/droneyard/droneyard/internal/rebuild"
	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/pkg/drone"
)

// Operations reported to the transition hook.
const (
	OpRegister Op = "register"
	OpClone    Op = "clone"
	OpRemove   Op = "remove"
)

// States an operation passes through, in order. Register uses start,
// submoduleAdded, registryNormalized, registryCommitted, metadataAbsorbed,
// built and done. Clone uses start, targetChecked, metadataResolved,
// cloned, gitdirLinked and done. Remove uses start, cleanChecked,
// metadataAbsorbed, removed and done.
const (
	StateStart              State = "start"
	StateSubmoduleAdded     State = "submoduleAdded"
	StateRegistryNormalized State = "registryNormalized"
	StateRegistryCommitted  State = "registryCommitted"
	StateMetadataAbsorbed   State = "metadataAbsorbed"
	StateBuilt              State = "built"
	StateTargetChecked      State = "targetChecked"
	StateMetadataResolved   State = "metadataResolved"
	StateCloned             State = "cloned"
	StateGitdirLinked       State = "gitdirLinked"
	StateCleanChecked       State = "cleanChecked"
	StateRemoved            State = "removed"
	StateDone               State = "done"
)

type (
	// Op names a lifecycle operation.
	Op string

	// State is one step of an operation.
	State string

	// Builder builds a single drone after it was registered.
	Builder interface {
		Build(ctx context.Context, sess *registry.Session, name drone.Name) (rebuild.Report, error)
	}

	// Request describes the drone to register or clone.
	Request struct {
		Name drone.Name
		URL  string
		// Path overrides the worktree location. Relative paths are resolved
		// against the host top-level directory.
		Path string
		// Partial skips the build after registering.
		Partial bool
	}

	// Manager runs lifecycle operations against one registry.
	Manager struct {
		Registry *registry.Registry
		Absorber Absorber
		Builder  Builder

		// Refresh is called with the drone name after a registration.
		Refresh func(name drone.Name)
		// OnTransition observes every state change.
		OnTransition func(op Op, name drone.Name, state State)
	}
)

// Register adds name as a submodule of the host, sorts the registry file,
// stages it, absorbs the drone's metadata and builds it. A drone that is
// registered and already absorbed resumes at the build.
func (m *Manager) Register(ctx context.Context, req Request) error {
	if err := req.Name.Validate(); err != nil {
		return err
	}
	m.transition(OpRegister, req.Name, StateStart)

	props, err := m.Registry.Props(ctx, nil, req.Name)
	if err != nil {
		return err
	}
	registered := isRegistered(props)
	wt := m.target(props, req)
	if registered && isAbsorbed(wt) {
		slog.Info("drone already assimilated", "drone", req.Name)
		m.transition(OpRegister, req.Name, StateMetadataAbsorbed)
	} else {
		if req.URL == "" {
			return fmt.Errorf("register %s: no url", req.Name)
		}
		rel, err := m.Registry.RelPath(wt)
		if err != nil {
			return err
		}
		gw := m.Registry.Gateway()

		if _, err := gw.RunOrFail(ctx, "add submodule",
			"submodule", "add", "--name", string(req.Name), "--", req.URL, rel); err != nil {
			return err
		}
		m.transition(OpRegister, req.Name, StateSubmoduleAdded)

		file := m.Registry.Store().File()
		if err := NormalizeRegistry(file); err != nil {
			return err
		}
		m.transition(OpRegister, req.Name, StateRegistryNormalized)

		if _, err := gw.RunOrFail(ctx, "stage registry", "add", "--", registry.FileName); err != nil {
			return err
		}
		m.transition(OpRegister, req.Name, StateRegistryCommitted)

		if err := m.Absorber.Absorb(ctx, m.Registry, req.Name, wt); err != nil {
			return err
		}
		m.transition(OpRegister, req.Name, StateMetadataAbsorbed)
	}

	if !req.Partial && m.Builder != nil {
		if _, err := m.Builder.Build(ctx, nil, req.Name); err != nil {
			return err
		}
		m.transition(OpRegister, req.Name, StateBuilt)
	}

	if m.Refresh != nil {
		m.Refresh(req.Name)
	}
	m.transition(OpRegister, req.Name, StateDone)
	return nil
}

// Clone clones name into its worktree without registering it. Metadata
// lives in the host's metadata store; a store left behind by an earlier
// removal is reused instead of cloning again.
func (m *Manager) Clone(ctx context.Context, req Request) error {
	if err := req.Name.Validate(); err != nil {
		return err
	}
	m.transition(OpClone, req.Name, StateStart)

	wt := m.target(nil, req)
	if _, err := os.Lstat(wt); err == nil {
		return &AlreadyExistsError{Name: req.Name, Path: wt}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	m.transition(OpClone, req.Name, StateTargetChecked)

	meta := m.Registry.MetadataPath(req.Name)
	reuse := isDir(meta)
	if !reuse {
		if err := os.MkdirAll(filepath.Dir(meta), 0o755); err != nil {
			return err
		}
	}
	m.transition(OpClone, req.Name, StateMetadataResolved)

	gw := m.Registry.Gateway()
	if reuse {
		slog.Info("reuse existing metadata", "drone", req.Name, "metadata", meta)
		if err := os.MkdirAll(wt, 0o755); err != nil {
			return err
		}
		if err := link(ctx, gw, wt, meta); err != nil {
			return err
		}
		if _, err := gw.At(wt).RunOrFail(ctx, "check out "+string(req.Name), "reset", "--hard", "HEAD"); err != nil {
			return err
		}
		m.transition(OpClone, req.Name, StateCloned)
		m.transition(OpClone, req.Name, StateGitdirLinked)
		m.transition(OpClone, req.Name, StateDone)
		return nil
	}

	if req.URL == "" {
		return fmt.Errorf("clone %s: no url", req.Name)
	}
	if _, err := gw.RunOrFail(ctx, "clone "+string(req.Name),
		"clone", "--separate-git-dir", meta, "--", req.URL, wt); err != nil {
		return err
	}
	m.transition(OpClone, req.Name, StateCloned)

	if err := WritePointer(wt, meta); err != nil {
		return err
	}
	m.transition(OpClone, req.Name, StateGitdirLinked)
	m.transition(OpClone, req.Name, StateDone)
	return nil
}

// Remove deletes the worktree of name. It refuses when the worktree has
// staged or unstaged changes. Metadata is absorbed into the host's store
// first and is never deleted.
func (m *Manager) Remove(ctx context.Context, name drone.Name) error {
	if err := name.Validate(); err != nil {
		return err
	}
	m.transition(OpRemove, name, StateStart)

	props, err := m.Registry.Props(ctx, nil, name)
	if err != nil {
		return err
	}
	registered := isRegistered(props)
	wt := m.Registry.Worktree(props, name)
	present := isDir(wt)
	if !present && !registered {
		return fmt.Errorf("remove %s: %w", name, os.ErrNotExist)
	}

	if present {
		if err := m.checkClean(ctx, name, wt); err != nil {
			return err
		}
	}
	m.transition(OpRemove, name, StateCleanChecked)

	if isDir(filepath.Join(wt, ".git")) {
		absorber := m.Absorber
		if !registered {
			absorber = manualAbsorber{}
		}
		if err := absorber.Absorb(ctx, m.Registry, name, wt); err != nil {
			return err
		}
	}
	m.transition(OpRemove, name, StateMetadataAbsorbed)

	if registered {
		rel, err := m.Registry.RelPath(wt)
		if err != nil {
			return err
		}
		if _, err := m.Registry.Gateway().RunOrFail(ctx, "remove submodule", "rm", "--force", "--", rel); err != nil {
			return err
		}
	} else if err := os.RemoveAll(wt); err != nil {
		return fmt.Errorf("remove %s: %w", wt, err)
	}
	m.transition(OpRemove, name, StateRemoved)
	m.transition(OpRemove, name, StateDone)
	return nil
}

func (m *Manager) checkClean(ctx context.Context, name drone.Name, wt string) error {
	gw := m.Registry.Gateway().At(wt)

	clean, err := gw.Succeeds(ctx, "diff", "--quiet")
	if err != nil {
		return err
	}
	if !clean {
		return &DirtyWorktreeError{Name: name, Worktree: wt}
	}

	clean, err = gw.Succeeds(ctx, "diff-index", "--quiet", "--cached", "HEAD")
	if err != nil {
		return err
	}
	if !clean {
		return &DirtyWorktreeError{Name: name, Worktree: wt, Staged: true}
	}
	return nil
}

func (m *Manager) target(props drone.Properties, req Request) string {
	switch {
	case req.Path != "" && filepath.IsAbs(req.Path):
		return filepath.Clean(req.Path)
	case req.Path != "":
		return filepath.Join(m.Registry.Top(), filepath.FromSlash(req.Path))
	default:
		return m.Registry.Worktree(props, req.Name)
	}
}

func (m *Manager) transition(op Op, name drone.Name, state State) {
	slog.Debug("lifecycle transition", "op", string(op), "drone", name, "state", string(state))
	if m.OnTransition != nil {
		m.OnTransition(op, name, state)
	}
}

func isRegistered(props drone.Properties) bool {
	_, hasPath := props.Get(drone.PropPath)
	_, hasURL := props.Get(drone.PropURL)
	return hasPath || hasURL
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
