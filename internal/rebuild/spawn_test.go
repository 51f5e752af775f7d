// SPDX-License-Identifier: MPL-2.0

package rebuild

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/droneyard/droneyard/internal/testutil"
)

func writeWorker(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("worker scripts need a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "worker")
	testutil.MustWriteFile(t, path, "#!/bin/sh\n"+body)
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("chmod worker: %v", err)
	}
	return path
}

func TestWorkerArgs(t *testing.T) {
	t.Parallel()

	if got, want := WorkerArgs("magit"), []string{"internal", "build", "magit"}; !slices.Equal(got, want) {
		t.Errorf("WorkerArgs() = %v, want %v", got, want)
	}
}

func TestSpawnBuild_StreamsOutput(t *testing.T) {
	t.Parallel()

	exe := writeWorker(t, `echo "args: $*"
echo "stage: $DRONEYARD_STAGE" >&2
`)
	var sink bytes.Buffer
	if err := SpawnBuild(t.Context(), exe, "magit", &sink, "DRONEYARD_STAGE=compile"); err != nil {
		t.Fatalf("SpawnBuild() error = %v", err)
	}

	out := sink.String()
	for _, want := range []string{"args: internal build magit\n", "stage: compile\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestSpawnBuild_WorkerFailure(t *testing.T) {
	t.Parallel()

	exe := writeWorker(t, "echo broken\nexit 3\n")
	var sink bytes.Buffer
	err := SpawnBuild(t.Context(), exe, "magit", &sink)
	if err == nil {
		t.Fatal("SpawnBuild() error = nil, want worker failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("SpawnBuild() error = %v, want exit status 3", err)
	}
	if sink.String() != "broken\n" {
		t.Errorf("output = %q, want the worker's output", sink.String())
	}
}

func TestSpawnBuild_MissingExecutable(t *testing.T) {
	t.Parallel()

	err := SpawnBuild(t.Context(), filepath.Join(t.TempDir(), "absent"), "magit", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "start build worker for magit") {
		t.Errorf("SpawnBuild() error = %v, want start failure", err)
	}
}
