// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/testutil"
	"github.com/droneyard/droneyard/internal/vcs/vcstest"
	"github.com/droneyard/droneyard/pkg/drone"
)

// newTestRegistry opens a Registry on a temporary host whose registry
// file lists lines.
func newTestRegistry(t *testing.T, lines ...string) (*Registry, *vcstest.FakeRunner) {
	t.Helper()

	top := t.TempDir()
	file := filepath.Join(top, FileName)
	testutil.MustWriteFile(t, file, "# fixture\n")

	fake := vcstest.NewFakeRunner()
	fake.Stdout(top+"\n", "rev-parse", "--show-toplevel")
	fake.Stdout(".git\n", "rev-parse", "--git-dir")
	fake.Stdout(strings.Join(lines, "\n")+"\n", "config", "--file", file, "--list")

	reg, err := Open(t.Context(), fake.Gateway(top), Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return reg, fake
}

func TestOpen(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t)

	if got, want := reg.GitDir(), filepath.Join(reg.Top(), ".git"); got != want {
		t.Errorf("GitDir() = %q, want %q", got, want)
	}
	if got, want := reg.DronesDir(), filepath.Join(reg.Top(), "lib"); got != want {
		t.Errorf("DronesDir() = %q, want %q", got, want)
	}
	if got, want := reg.MetadataPath("magit"), filepath.Join(reg.Top(), ".git", "modules", "magit"); got != want {
		t.Errorf("MetadataPath() = %q, want %q", got, want)
	}
	if got, want := reg.Store().File(), filepath.Join(reg.Top(), ".gitmodules"); got != want {
		t.Errorf("Store().File() = %q, want %q", got, want)
	}
}

func TestOpen_Layouts(t *testing.T) {
	t.Parallel()

	top := t.TempDir()
	fake := vcstest.NewFakeRunner()
	fake.Stdout(top+"\n", "rev-parse", "--show-toplevel")
	fake.Stdout(filepath.Join(top, ".git")+"\n", "rev-parse", "--git-dir")

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"profiles", Options{Layout: LayoutProfiles}, filepath.Join(top, "profiles")},
		{"relative override", Options{DronesDir: "site-lisp"}, filepath.Join(top, "site-lisp")},
		{"absolute override", Options{DronesDir: filepath.Join(top, "x")}, filepath.Join(top, "x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg, err := Open(t.Context(), fake.Gateway(top), tt.opts)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if reg.DronesDir() != tt.want {
				t.Errorf("DronesDir() = %q, want %q", reg.DronesDir(), tt.want)
			}
		})
	}
}

func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	fake := vcstest.NewFakeRunner()
	fake.Exit(128, "fatal: not a git repository", "rev-parse", "--show-toplevel")

	_, err := Open(t.Context(), fake.Gateway(t.TempDir()), Options{})
	if !errors.Is(err, ErrMissingSupportDirectory) {
		t.Errorf("Open() error = %v, want ErrMissingSupportDirectory", err)
	}
}

func TestRegistry_Listings(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t,
		"submodule.alpha.path=lib/alpha",
		"submodule.beta.path=lib/beta",
		"submodule.c/d.path=lib/c/d",
		"submodule.outside.path=vendor/outside",
	)
	testutil.WriteTree(t, reg.Top(), map[string]string{
		"lib/alpha/alpha.el":  "",
		"lib/stray/stray.el":  "",
		"lib/.hidden/x.el":    "",
		"lib/notes.txt":       "",
		"vendor/outside/o.el": "",
	})

	t.Run("worktree paths", func(t *testing.T) {
		t.Parallel()
		got, err := reg.ListWorktreePaths(t.Context(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if want := []drone.Name{"alpha", "beta", "c/d"}; !slices.Equal(got, want) {
			t.Errorf("ListWorktreePaths() = %v, want %v", got, want)
		}
	})

	t.Run("assimilated", func(t *testing.T) {
		t.Parallel()
		entries, err := reg.ListAssimilated(t.Context(), nil, FilterAssimilated)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := entryNames(entries), []drone.Name{"alpha"}; !slices.Equal(got, want) {
			t.Errorf("ListAssimilated() = %v, want %v", got, want)
		}
		if entries[0].Path != filepath.Join(reg.Top(), "lib", "alpha") {
			t.Errorf("Path = %q", entries[0].Path)
		}
	})

	t.Run("assimilating", func(t *testing.T) {
		t.Parallel()
		entries, err := reg.ListAssimilated(t.Context(), nil, FilterAssimilating)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := entryNames(entries), []drone.Name{"beta"}; !slices.Equal(got, want) {
			t.Errorf("ListAssimilated(assimilating) = %v, want %v", got, want)
		}
	})

	t.Run("cloned", func(t *testing.T) {
		t.Parallel()
		got, err := reg.ListClonedOnly()
		if err != nil {
			t.Fatal(err)
		}
		if want := []drone.Name{"alpha", "stray"}; !slices.Equal(got, want) {
			t.Errorf("ListClonedOnly() = %v, want %v", got, want)
		}
	})
}

func TestRegistry_ResolveLoadPath(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t,
		"submodule.configured.path=lib/configured",
		"submodule.configured.load-path=lisp",
		"submodule.configured.load-path=extensions",
		"submodule.both.path=lib/both",
		"submodule.lisponly.path=lib/lisponly",
		"submodule.flat.path=lib/flat",
	)
	testutil.WriteTree(t, reg.Top(), map[string]string{
		"lib/configured/":    "",
		"lib/both/elisp/":    "",
		"lib/both/lisp/":     "",
		"lib/lisponly/lisp/": "",
		"lib/flat/flat.el":   "",
	})
	lib := reg.DronesDir()

	tests := []struct {
		name drone.Name
		want []string
	}{
		{"configured", []string{filepath.Join(lib, "configured", "lisp"), filepath.Join(lib, "configured", "extensions")}},
		{"both", []string{filepath.Join(lib, "both", "elisp")}},
		{"lisponly", []string{filepath.Join(lib, "lisponly", "lisp")}},
		{"flat", []string{filepath.Join(lib, "flat")}},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			t.Parallel()
			got, err := reg.ResolveLoadPath(t.Context(), nil, tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ResolveLoadPath(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegistry_ResolveInfoPath(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t,
		"submodule.magit.path=lib/magit",
		"submodule.custom.path=lib/custom",
		"submodule.custom.info-path=manual",
	)
	testutil.WriteTree(t, reg.Top(), map[string]string{
		"lib/magit/magit.el":        "",
		"lib/magit/docs/magit.texi": "",
		"lib/magit/doc/old.info":    "",
		"lib/custom/manual/":        "",
	})
	wt := filepath.Join(reg.DronesDir(), "magit")

	sources, err := reg.ResolveInfoPath(t.Context(), nil, "magit", true)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{filepath.Join(wt, "docs")}; !slices.Equal(sources, want) {
		t.Errorf("ResolveInfoPath(sources) = %v, want %v", sources, want)
	}

	built, err := reg.ResolveInfoPath(t.Context(), nil, "magit", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{filepath.Join(wt, "doc")}; !slices.Equal(built, want) {
		t.Errorf("ResolveInfoPath(built) = %v, want %v", built, want)
	}

	custom, err := reg.ResolveInfoPath(t.Context(), nil, "custom", true)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{filepath.Join(reg.DronesDir(), "custom", "manual")}; !slices.Equal(custom, want) {
		t.Errorf("ResolveInfoPath(custom) = %v, want %v", custom, want)
	}
}

func TestSession_PrimeServesFromCache(t *testing.T) {
	t.Parallel()

	reg, fake := newTestRegistry(t, "submodule.x.path=lib/x", "submodule.x.disabled=true")
	sess := NewSession()
	if err := sess.Prime(t.Context(), reg.Store()); err != nil {
		t.Fatalf("Prime() error = %v", err)
	}
	before := len(fake.Calls())

	for range 3 {
		props, err := reg.Props(t.Context(), sess, "x")
		if err != nil {
			t.Fatal(err)
		}
		if !props.Bool(drone.PropDisabled) {
			t.Error("disabled = false, want true")
		}
	}
	if after := len(fake.Calls()); after != before {
		t.Errorf("primed session still called git %d times", after-before)
	}

	sess.Drop()
	if _, err := reg.Props(t.Context(), sess, "x"); err != nil {
		t.Fatal(err)
	}
	if len(fake.Calls()) == before {
		t.Error("dropped session did not reload from git")
	}
}

func TestSession_RecursiveFor(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	if sess.RecursiveFor(drone.Properties{}) {
		t.Error("RecursiveFor() = true without default or property")
	}
	sess.Recursive = true
	if !sess.RecursiveFor(drone.Properties{}) {
		t.Error("RecursiveFor() ignored the session default")
	}
	off := drone.Properties{drone.PropRecursiveByteCompile: drone.Single("nil")}
	if sess.RecursiveFor(off) {
		t.Error("RecursiveFor() ignored an explicit false property")
	}
}

func entryNames(entries []Entry) []drone.Name {
	names := make([]drone.Name, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}
