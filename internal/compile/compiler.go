// SPDX-License-Identifier: MPL-2.0

package compile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/droneyard/droneyard/pkg/drone"
)

// DefaultEmacs is the Emacs executable looked up on PATH.
const DefaultEmacs = "emacs"

const (
	// StatusCompiled means a compiled file was written.
	StatusCompiled Status = iota
	// StatusDeclined means the file asked not to be compiled.
	StatusDeclined
	// StatusFailed covers every other outcome.
	StatusFailed
)

var noByteCompileVar = regexp.MustCompile(`no-byte-compile:\s*t\b`)

type (
	// Status is the outcome class of compiling one file.
	Status int

	// Outcome is the result of compiling one file. Output holds the
	// compiler diagnostics.
	Outcome struct {
		Status Status
		Output string
	}

	// Compiler compiles a single source file with loadPath available.
	Compiler interface {
		Compile(ctx context.Context, file string, loadPath []string) Outcome
	}

	// EmacsCompiler compiles through `emacs --batch`.
	EmacsCompiler struct {
		// Binary defaults to DefaultEmacs.
		Binary string
	}
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompiled:
		return "compiled"
	case StatusDeclined:
		return "declined"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Compile implements Compiler. A file that sets no-byte-compile is
// declined without starting Emacs.
func (c EmacsCompiler) Compile(ctx context.Context, file string, loadPath []string) Outcome {
	src, err := os.ReadFile(file)
	if err != nil {
		return Outcome{Status: StatusFailed, Output: err.Error()}
	}
	if declinesCompilation(src) {
		return Outcome{Status: StatusDeclined}
	}

	bin := c.Binary
	if bin == "" {
		bin = DefaultEmacs
	}
	args := []string{"-Q", "--batch"}
	for _, dir := range loadPath {
		args = append(args, "-L", dir)
	}
	args = append(args, "-f", "batch-byte-compile", file)

	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()
	output := strings.TrimSpace(out.String())

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && output == "" {
			output = runErr.Error()
		}
		return Outcome{Status: StatusFailed, Output: output}
	}
	if _, err := os.Stat(CompiledPath(file)); err != nil {
		return Outcome{Status: StatusDeclined, Output: output}
	}
	return Outcome{Status: StatusCompiled, Output: output}
}

// CompiledPath returns the compiled file written for source.
func CompiledPath(source string) string {
	return strings.TrimSuffix(source, drone.SourceExt) + drone.CompiledExt
}

// declinesCompilation looks for a no-byte-compile file-local variable in
// the first line or the trailing Local Variables block.
func declinesCompilation(src []byte) bool {
	firstLine, _, _ := bytes.Cut(src, []byte{'\n'})
	if noByteCompileVar.Match(firstLine) {
		return true
	}
	tail := src
	if len(tail) > 3000 {
		tail = tail[len(tail)-3000:]
	}
	i := bytes.LastIndex(tail, []byte("Local Variables:"))
	return i >= 0 && noByteCompileVar.Match(tail[i:])
}
