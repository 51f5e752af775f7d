// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions locates the configuration file.
	LoadOptions struct {
		// ConfigFilePath names the file to load. It must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when looking up config.cue.
		ConfigDirPath string
	}

	// Provider loads a Config.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// ProviderFunc adapts a function to Provider.
	ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, error)
)

// Load calls f.
func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return f(ctx, opts)
}

// NewProvider returns the Provider reading the CUE file and DRONEYARD_*
// environment variables.
func NewProvider() Provider {
	return ProviderFunc(func(ctx context.Context, opts LoadOptions) (*Config, error) {
		cfg, _, err := loadWithOptions(ctx, opts)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	})
}
