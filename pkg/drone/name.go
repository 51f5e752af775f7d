// SPDX-License-Identifier: MPL-2.0

package drone

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidName = errors.New("invalid drone name")

type (
	// Name identifies a drone. It doubles as the submodule name in the
	// registry file and as the directory name below the drones directory,
	// so it must never contain a path separator.
	Name string

	// InvalidNameError is returned when a Name cannot be used as a drone
	// identifier.
	InvalidNameError struct {
		Value  Name
		Reason string
	}
)

// String returns the string representation of the Name.
func (n Name) String() string { return string(n) }

// IsValid returns whether the Name can identify a drone, and the
// validation errors if it cannot.
func (n Name) IsValid() (bool, []error) {
	s := string(n)
	switch {
	case strings.TrimSpace(s) == "":
		return false, []error{&InvalidNameError{Value: n, Reason: "must be non-empty"}}
	case strings.ContainsAny(s, `/\`):
		return false, []error{&InvalidNameError{Value: n, Reason: "must not contain a path separator"}}
	case strings.HasPrefix(s, "."):
		return false, []error{&InvalidNameError{Value: n, Reason: "must not start with a dot"}}
	}
	return true, nil
}

// Validate returns the first validation error, or nil.
func (n Name) Validate() error {
	if ok, errs := n.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid drone name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }
