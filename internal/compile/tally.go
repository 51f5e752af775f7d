// SPDX-License-Identifier: MPL-2.0

package compile

import "fmt"

type (
	// Failure records one file that did not compile.
	Failure struct {
		File   string
		Detail string
	}

	// Tally counts the outcome of a compile run. Files, Skipped and Failed
	// partition the eligible files; Dirs counts directories that held at
	// least one of them.
	Tally struct {
		Files    int
		Skipped  int
		Failed   int
		Dirs     int
		Failures []Failure
	}
)

// Eligible returns the number of eligible files seen.
func (t Tally) Eligible() int {
	return t.Files + t.Skipped + t.Failed
}

// Add folds o into t.
func (t *Tally) Add(o Tally) {
	t.Files += o.Files
	t.Skipped += o.Skipped
	t.Failed += o.Failed
	t.Dirs += o.Dirs
	t.Failures = append(t.Failures, o.Failures...)
}

// String summarizes the tally the way batch logs print it.
func (t Tally) String() string {
	return fmt.Sprintf("%d compiled, %d skipped, %d failed in %d %s",
		t.Files, t.Skipped, t.Failed, t.Dirs, plural(t.Dirs, "directory", "directories"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
