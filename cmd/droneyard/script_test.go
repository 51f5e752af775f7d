// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"droneyard": func() {
			os.Exit(Run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
		},
	})
}

// TestCLI runs the testscript scripts in testdata against the droneyard
// command tree, executed in-process as the "droneyard" program.
func TestCLI(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			env.Setenv("GIT_CONFIG_NOSYSTEM", "1")
			env.Setenv("GIT_AUTHOR_NAME", "droneyard")
			env.Setenv("GIT_AUTHOR_EMAIL", "droneyard@example.com")
			env.Setenv("GIT_COMMITTER_NAME", "droneyard")
			env.Setenv("GIT_COMMITTER_EMAIL", "droneyard@example.com")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
