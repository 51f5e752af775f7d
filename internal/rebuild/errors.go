// SPDX-License-Identifier: MPL-2.0

package rebuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/droneyard/droneyard/pkg/drone"
)

// ErrUsage is returned when a batch-only operation runs interactively.
var ErrUsage = errors.New("rebuild of all drones must run in batch mode")

type (
	// Activator exposes a built drone to the running environment.
	Activator interface {
		Activate(ctx context.Context, name drone.Name) error
	}

	// NopActivator does nothing; the host environment picks drones up on
	// its next start.
	NopActivator struct{}

	// ActivationError reports a failed activation. It does not stop a
	// batch rebuild.
	ActivationError struct {
		Name drone.Name
		Err  error
	}
)

// Activate implements Activator.
func (NopActivator) Activate(context.Context, drone.Name) error { return nil }

// Error implements the error interface.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ActivationError) Unwrap() error { return e.Err }
