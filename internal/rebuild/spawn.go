// SPDX-License-Identifier: MPL-2.0

package rebuild

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/droneyard/droneyard/pkg/drone"
)

// WorkerArgs are the arguments that make the droneyard binary build a
// single drone in-process.
func WorkerArgs(name drone.Name) []string {
	return []string{"internal", "build", string(name)}
}

// SpawnBuild builds name in a child process running exe and copies its
// combined output, line by line, into sink as it arrives. Cancelling ctx
// kills the child.
func SpawnBuild(ctx context.Context, exe string, name drone.Name, sink io.Writer, env ...string) error {
	cmd := exec.CommandContext(ctx, exe, WorkerArgs(name)...)
	cmd.Env = append(cmd.Environ(), env...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start build worker for %s: %w", name, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waitErr <- err
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var sinkErr error
	for scanner.Scan() {
		if sinkErr != nil {
			continue
		}
		if _, err := fmt.Fprintln(sink, scanner.Text()); err != nil {
			sinkErr = err
		}
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, pr)
		if sinkErr == nil {
			sinkErr = err
		}
	}

	if err := <-waitErr; err != nil {
		return fmt.Errorf("build worker for %s: %w", name, err)
	}
	if sinkErr != nil {
		return fmt.Errorf("stream build output of %s: %w", name, sinkErr)
	}
	return nil
}
