// SPDX-License-Identifier: MPL-2.0

// Package registrytest opens registries on temporary hosts backed by a
// scripted git.
package registrytest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/internal/testutil"
	"github.com/droneyard/droneyard/internal/vcs/vcstest"
)

// Open creates a temporary host whose registry file lists lines and
// opens it with the default layout. The returned runner answers
// rev-parse and the registry listing; tests script everything else.
func Open(t testing.TB, lines ...string) (*registry.Registry, *vcstest.FakeRunner) {
	t.Helper()

	top := t.TempDir()
	file := filepath.Join(top, registry.FileName)
	testutil.MustWriteFile(t, file, "# fixture\n")

	fake := vcstest.NewFakeRunner()
	fake.Stdout(top+"\n", "rev-parse", "--show-toplevel")
	fake.Stdout(filepath.Join(top, ".git")+"\n", "rev-parse", "--git-dir")
	SetLines(fake, top, lines...)

	reg, err := registry.Open(t.Context(), fake.Gateway(top), registry.Options{})
	if err != nil {
		t.Fatalf("registry.Open() error = %v", err)
	}
	return reg, fake
}

// SetLines rescripts the registry listing of the host at top.
func SetLines(fake *vcstest.FakeRunner, top string, lines ...string) {
	fake.Stdout(strings.Join(lines, "\n")+"\n", "config", "--file", filepath.Join(top, registry.FileName), "--list")
}
