// SPDX-License-Identifier: MPL-2.0

package manual

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/droneyard/droneyard/internal/registry/registrytest"
	"github.com/droneyard/droneyard/internal/testutil"
)

type fakeConverter struct {
	made    []string
	indexed []string
}

func (f *fakeConverter) Makeinfo(_ context.Context, dir, source, output string) (string, error) {
	if source == "bad.texi" {
		return "bad.texi:12: @node seen before @top", errors.New("exit status 1")
	}
	f.made = append(f.made, source)
	return "", os.WriteFile(filepath.Join(dir, output), []byte("info"), 0o644)
}

func (f *fakeConverter) InstallInfo(_ context.Context, _, info, dirFile string) (string, error) {
	f.indexed = append(f.indexed, info+">"+dirFile)
	return "", nil
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	reg, fake := registrytest.Open(t,
		"submodule.magit.path=lib/magit",
		"submodule.magit.no-makeinfo=docs/skip.texi",
	)
	wt := filepath.Join(reg.DronesDir(), "magit")
	testutil.WriteTree(t, wt, map[string]string{
		"magit.el":          "",
		"docs/bad.texi":     "",
		"docs/forge.texi":   "",
		"docs/forge.info":   "committed",
		"docs/ghub.texinfo": "",
		"docs/ghub.info":    "stale",
		"docs/magit.texi":   "",
		"docs/skip.texi":    "",
	})
	fake.Exit(1, "error: pathspec did not match", "ls-files")
	fake.Stdout("docs/forge.info\n", "ls-files", "--error-unmatch", "--", "docs/forge.info")

	conv := &fakeConverter{}
	b := &Builder{Registry: reg, Converter: conv}
	report, err := b.Build(t.Context(), nil, "magit")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	docs := filepath.Join(wt, "docs")
	if want := []string{"ghub.texinfo", "magit.texi"}; !slices.Equal(conv.made, want) {
		t.Errorf("makeinfo ran for %v, want %v", conv.made, want)
	}
	if want := []string{filepath.Join(docs, "ghub.info"), filepath.Join(docs, "magit.info")}; !slices.Equal(report.Generated, want) {
		t.Errorf("Generated = %v, want %v", report.Generated, want)
	}
	if len(report.Failures) != 1 || report.Failures[0].File != filepath.Join(docs, "bad.texi") {
		t.Errorf("Failures = %v, want bad.texi", report.Failures)
	}
	if want := []string{"forge.info>dir", "ghub.info>dir", "magit.info>dir"}; !slices.Equal(conv.indexed, want) {
		t.Errorf("install-info ran for %v, want %v", conv.indexed, want)
	}
	if got := testutil.MustReadFile(t, filepath.Join(docs, "forge.info")); got != "committed" {
		t.Errorf("tracked manual was rewritten: %q", got)
	}
}

func TestBuilder_NoManuals(t *testing.T) {
	t.Parallel()

	reg, _ := registrytest.Open(t, "submodule.dash.path=lib/dash")
	testutil.MustWriteFile(t, filepath.Join(reg.DronesDir(), "dash", "dash.el"), "")

	conv := &fakeConverter{}
	report, err := (&Builder{Registry: reg, Converter: conv}).Build(t.Context(), nil, "dash")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(report.Generated)+len(report.Indexed)+len(report.Failures) != 0 || len(conv.made) != 0 {
		t.Errorf("Build() = %+v, want an empty report", report)
	}
}

func TestInfoName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"magit.texi":   "magit.info",
		"ghub.texinfo": "ghub.info",
		"a.b.texi":     "a.b.info",
	} {
		if got := infoName(in); got != want {
			t.Errorf("infoName(%q) = %q, want %q", in, got, want)
		}
	}
}
