// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/droneyard/droneyard/internal/testutil"
	"github.com/droneyard/droneyard/internal/vcs/vcstest"
	"github.com/droneyard/droneyard/pkg/drone"
)

func TestParseLines_FoldsMultiValuedProperties(t *testing.T) {
	t.Parallel()

	got := ParseLines([]string{
		"submodule.x.load-path=a",
		"submodule.x.load-path=b",
		"submodule.x.disabled=true",
	}, false)

	want := Table{
		"x": {
			drone.PropLoadPath: drone.Multi("a", "b"),
			drone.PropDisabled: drone.Single("true"),
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLines() = %#v, want %#v", got, want)
	}
}

func TestParseLines_SingleValuedLastWins(t *testing.T) {
	t.Parallel()

	got := ParseLines([]string{
		"submodule.x.url=https://example.com/first.git",
		"submodule.x.url=https://example.com/second.git",
	}, false)

	v := got["x"][drone.PropURL]
	if v.IsList() {
		t.Fatalf("url became a list: %v", v.List())
	}
	if v.String() != "https://example.com/second.git" {
		t.Errorf("url = %q, want the last value", v.String())
	}
}

func TestParseLines_RawModeListsEverything(t *testing.T) {
	t.Parallel()

	got := ParseLines([]string{"submodule.x.disabled=true"}, true)
	if v := got["x"][drone.PropDisabled]; !v.IsList() || !slices.Equal(v.List(), []string{"true"}) {
		t.Errorf("raw disabled = %#v, want a one-element list", v)
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line      string
		wantName  drone.Name
		wantProp  string
		wantValue string
		wantOK    bool
	}{
		{"submodule.foo.path=lib/foo", "foo", drone.PropPath, "lib/foo", true},
		{"submodule.foo.el.path=lib/foo.el", "foo.el", drone.PropPath, "lib/foo.el", true},
		{"submodule.foo.build-step=make all=yes", "foo", drone.PropBuildStep, "make all=yes", true},
		{"submodule.foo.disabled", "foo", drone.PropDisabled, "true", true},
		{"submodule.foo.recursive-byte-compile=t", "foo", drone.PropRecursiveByteCompile, "t", true},
		{"core.bare=false", "", "", "", false},
		{"submodule.nokey=1", "", "", "", false},
		{"submodule.foo.=1", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			name, prop, value, ok := ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if name != tt.wantName || prop != tt.wantProp || value != tt.wantValue {
				t.Errorf("ParseLine(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.line, name, prop, value, tt.wantName, tt.wantProp, tt.wantValue)
			}
		})
	}
}

func TestFormatLines_RoundTrip(t *testing.T) {
	t.Parallel()

	lines := []string{
		"submodule.org.path=lib/org",
		"submodule.org.url=https://git.savannah.gnu.org/git/emacs/org-mode.git",
		"submodule.org.build-step=make autoloads",
		"submodule.org.build-step=make",
		"submodule.magit.path=lib/magit",
		"submodule.magit.load-path=lisp",
		"submodule.magit.info-path=docs",
		"submodule.magit.no-byte-compile=lisp/magit-libgit.el",
		"submodule.dash.el.path=lib/dash",
		"submodule.dash.el.disabled=true",
	}

	first := ParseLines(lines, false)
	formatted := FormatLines(first)
	second := ParseLines(formatted, false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the table:\nfirst:  %#v\nsecond: %#v", first, second)
	}
	if want := "submodule.dash.el.disabled=true"; formatted[0] != want {
		t.Errorf("FormatLines()[0] = %q, want %q", formatted[0], want)
	}
	i := slices.Index(formatted, "submodule.org.build-step=make autoloads")
	if i < 0 || i+1 >= len(formatted) || formatted[i+1] != "submodule.org.build-step=make" {
		t.Errorf("build steps lost their order: %v", formatted)
	}
	if !slices.Equal(FormatLines(second), formatted) {
		t.Error("FormatLines() is not stable across a round trip")
	}
}

func TestTable_Names(t *testing.T) {
	t.Parallel()

	table := Table{"org": nil, "alpha": nil, "magit": nil}
	if got, want := table.Names(), []drone.Name{"alpha", "magit", "org"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestStore_LoadAll(t *testing.T) {
	t.Parallel()

	top := t.TempDir()
	file := filepath.Join(top, FileName)
	testutil.MustWriteFile(t, file, "")

	fake := vcstest.NewFakeRunner()
	fake.Stdout("submodule.x.load-path=a\nsubmodule.x.load-path=b\n", "config", "--file", file, "--list")

	store := NewStore(fake.Gateway(top), file)
	table, err := store.LoadAll(t.Context(), false)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if got := table["x"].List(drone.PropLoadPath); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("loadPath = %v, want [a b]", got)
	}
}

func TestStore_LoadAll_MissingFile(t *testing.T) {
	t.Parallel()

	top := t.TempDir()
	fake := vcstest.NewFakeRunner()
	store := NewStore(fake.Gateway(top), filepath.Join(top, FileName))

	table, err := store.LoadAll(t.Context(), false)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(table) != 0 {
		t.Errorf("LoadAll() = %v, want empty", table)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("git was called for a missing registry file: %v", fake.CallLines())
	}
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	top := t.TempDir()
	file := filepath.Join(top, FileName)
	fake := vcstest.NewFakeRunner()
	fake.Stdout("https://example.com/x.git\n", "config", "--file", file, "--get", "submodule.x.url")
	fake.Exit(1, "", "config", "--file", file, "--get", "submodule.x.load-path")
	store := NewStore(fake.Gateway(top), file)

	t.Run("uncached", func(t *testing.T) {
		t.Parallel()
		v, ok, err := store.Get(t.Context(), nil, "x", drone.PropURL)
		if err != nil || !ok || v != "https://example.com/x.git" {
			t.Errorf("Get(url) = (%q, %v, %v)", v, ok, err)
		}
		v, ok, err = store.Get(t.Context(), nil, "x", drone.PropLoadPath)
		if err != nil || ok || v != "" {
			t.Errorf("Get(loadPath) = (%q, %v, %v), want absent", v, ok, err)
		}
	})

	t.Run("cached", func(t *testing.T) {
		t.Parallel()
		cache := Table{"x": {drone.PropURL: drone.Single("cached")}}
		v, ok, err := store.Get(t.Context(), cache, "x", drone.PropURL)
		if err != nil || !ok || v != "cached" {
			t.Errorf("Get(url) = (%q, %v, %v), want cached value", v, ok, err)
		}
		v, ok, err = store.Get(t.Context(), cache, "y", drone.PropURL)
		if err != nil || ok || v != "" {
			t.Errorf("Get(unknown drone) = (%q, %v, %v), want absent", v, ok, err)
		}
		if fake.Called("config", "--file", file, "--get", "submodule.y.url") {
			t.Error("cached Get asked git")
		}
		values, err := store.GetAll(t.Context(), cache, "y", drone.PropLoadPath)
		if err != nil || values != nil {
			t.Errorf("GetAll() = (%v, %v), want nil", values, err)
		}
	})
}
