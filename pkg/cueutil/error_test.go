// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "config.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v, want nil", err)
	}

	plain := errors.New("some error")
	err := FormatError(plain, "config.cue")
	if !errors.Is(err, plain) || !strings.HasPrefix(err.Error(), "config.cue: ") {
		t.Errorf("FormatError(plain) = %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "no fields",
			err:  &ValidationError{FilePath: "config.cue"},
			want: "config.cue: validation failed",
		},
		{
			name: "one field",
			err:  &ValidationError{FilePath: "config.cue", Fields: []FieldError{{Path: "layout", Message: "conflicting values"}}},
			want: "config.cue: layout: conflicting values",
		},
		{
			name: "several fields",
			err: &ValidationError{FilePath: "config.cue", Fields: []FieldError{
				{Path: "layout", Message: "conflicting values"},
				{Message: "unexpected EOF"},
			}},
			want: "config.cue: validation failed:\n  layout: conflicting values\n  unexpected EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"layout"}, "layout"},
		{[]string{"build", "shell_wrapper"}, "build.shell_wrapper"},
		{[]string{"build", "first", "0"}, "build.first[0]"},
		{[]string{"matrix", "0", "rows", "12"}, "matrix[0].rows[12]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "config.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	err := CheckFileSize(make([]byte, 101), 100, "config.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum 100 bytes") {
		t.Errorf("over limit: %v", err)
	}
}
