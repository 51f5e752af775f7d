// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output string
		want   string
	}{
		{"git version 2.39.2", "v2.39.2"},
		{"git version 2.30.1 (Apple Git-130)", "v2.30.1"},
		{"git version 2.41.0.windows.1", "v2.41.0"},
		{"git version 1.9", "v1.9.0"},
	}

	for _, tt := range tests {
		got, err := ParseVersion(tt.output)
		if err != nil {
			t.Errorf("ParseVersion(%q) error = %v", tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}

	if _, err := ParseVersion("git version unknown"); !errors.Is(err, ErrUnparsableVersion) {
		t.Errorf("ParseVersion(garbage) error = %v, want ErrUnparsableVersion", err)
	}
}

func TestAtLeast(t *testing.T) {
	t.Parallel()

	if !AtLeast("v2.12.0", "v2.12.0") {
		t.Error("equal versions should satisfy AtLeast")
	}
	if !AtLeast("v2.39.2", "v2.12.0") {
		t.Error("v2.39.2 >= v2.12.0")
	}
	if AtLeast("v2.11.4", "v2.12.0") {
		t.Error("v2.11.4 < v2.12.0")
	}
	if AtLeast("v1.99.0", "v2.12.0") {
		t.Error("v1.99.0 < v2.12.0")
	}
}
