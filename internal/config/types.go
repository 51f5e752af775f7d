// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// LayoutLib keeps drones under <host>/lib.
	LayoutLib Layout = "lib"
	// LayoutProfiles keeps drones under <host>/profiles.
	LayoutProfiles Layout = "profiles"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLayout is returned when a Layout value is not recognized.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidSourcePattern is returned when a source pattern is not a valid glob.
	ErrInvalidSourcePattern = errors.New("invalid source pattern")
	// ErrInvalidShellWrapper is returned when the shell wrapper template
	// does not contain a command placeholder.
	ErrInvalidShellWrapper = errors.New("invalid shell wrapper")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Layout selects the default drones directory below the host.
	Layout string

	// InvalidLayoutError is returned when a Layout value is not recognized.
	InvalidLayoutError struct {
		Value Layout
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// BinaryFilePath represents a filesystem path to a binary executable.
	// The zero value ("") is valid and means "look it up on PATH".
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// InvalidSourcePatternError wraps the glob syntax error of a pattern.
	InvalidSourcePatternError struct {
		Pattern string
		Err     error
	}

	// InvalidShellWrapperError is returned for a wrapper template without
	// "%s" or "%S".
	InvalidShellWrapperError struct {
		Value string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// HostDir is the host repository. Empty means the working directory.
		HostDir string `json:"host_dir" mapstructure:"host_dir"`
		// DronesDir overrides the layout's drones directory.
		DronesDir string `json:"drones_dir" mapstructure:"drones_dir"`
		// Layout picks the default drones directory.
		Layout Layout `json:"layout" mapstructure:"layout"`
		// GitBinary is the git executable.
		GitBinary BinaryFilePath `json:"git_binary" mapstructure:"git_binary"`
		// EmacsBinary compiles drones.
		EmacsBinary BinaryFilePath `json:"emacs_binary" mapstructure:"emacs_binary"`
		// MakeinfoBinary converts Texinfo manuals.
		MakeinfoBinary BinaryFilePath `json:"makeinfo_binary" mapstructure:"makeinfo_binary"`
		// InstallInfoBinary maintains manual indexes.
		InstallInfoBinary BinaryFilePath `json:"install_info_binary" mapstructure:"install_info_binary"`
		// Compile configures byte-compilation.
		Compile CompileConfig `json:"compile" mapstructure:"compile"`
		// Build configures the build orchestration.
		Build BuildConfig `json:"build" mapstructure:"build"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// CompileConfig configures the compile pipeline.
	CompileConfig struct {
		// Recursive descends into subdirectories of a drone's load path.
		Recursive bool `json:"recursive" mapstructure:"recursive"`
		// SourcePattern selects the files to compile.
		SourcePattern string `json:"source_pattern" mapstructure:"source_pattern"`
	}

	// BuildConfig configures rebuilds.
	BuildConfig struct {
		// First lists drones built before all others.
		First []string `json:"first" mapstructure:"first"`
		// Expensive lists drones deferred by a quick rebuild.
		Expensive []string `json:"expensive" mapstructure:"expensive"`
		// ShellWrapper wraps shell build steps; see buildstep.Wrap.
		ShellWrapper string `json:"shell_wrapper" mapstructure:"shell_wrapper"`
		// Makeinfo enables manual builds.
		Makeinfo bool `json:"makeinfo" mapstructure:"makeinfo"`
		// InitFiles are the host files compiled after a rebuild.
		InitFiles []string `json:"init_files" mapstructure:"init_files"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// LogLevel is the minimum level logged.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// IsValid returns whether the Config has valid fields, and the field
// errors wrapped in an *InvalidConfigError when it does not.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	collect := func(valid bool, fieldErrs []error) {
		if !valid {
			errs = append(errs, fieldErrs...)
		}
	}

	collect(c.Layout.IsValid())
	for _, p := range []BinaryFilePath{c.GitBinary, c.EmacsBinary, c.MakeinfoBinary, c.InstallInfoBinary} {
		collect(p.IsValid())
	}
	if c.Compile.SourcePattern != "" && !doublestar.ValidatePattern(c.Compile.SourcePattern) {
		errs = append(errs, &InvalidSourcePatternError{Pattern: c.Compile.SourcePattern, Err: doublestar.ErrBadPattern})
	}
	if w := c.Build.ShellWrapper; w != "" && !strings.Contains(w, "%s") && !strings.Contains(w, "%S") {
		errs = append(errs, &InvalidShellWrapperError{Value: w})
	}
	collect(c.UI.ColorScheme.IsValid())
	collect(c.UI.LogLevel.IsValid())

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the Layout.
func (l Layout) String() string { return string(l) }

// IsValid returns whether the Layout is one of the defined layouts.
func (l Layout) IsValid() (bool, []error) {
	switch l {
	case LayoutLib, LayoutProfiles:
		return true, nil
	default:
		return false, []error{&InvalidLayoutError{Value: l}}
	}
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout %q (valid: lib, profiles)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLayoutError) Unwrap() error { return ErrInvalidLayout }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is recognized.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the BinaryFilePath.
func (p BinaryFilePath) String() string { return string(p) }

// IsValid returns whether the BinaryFilePath is valid.
// The zero value ("") is valid; non-zero values must not be whitespace-only.
func (p BinaryFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidBinaryFilePathError{Value: p}}
	}
	return true, nil
}

// Or returns p, or fallback when p is empty.
func (p BinaryFilePath) Or(fallback string) string {
	if p == "" {
		return fallback
	}
	return string(p)
}

// Error implements the error interface for InvalidBinaryFilePathError.
func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("invalid binary file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidBinaryFilePath for errors.Is() compatibility.
func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

func (e *InvalidSourcePatternError) Error() string {
	return fmt.Sprintf("invalid source pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the sentinel and the glob error.
func (e *InvalidSourcePatternError) Unwrap() []error {
	return []error{ErrInvalidSourcePattern, e.Err}
}

func (e *InvalidShellWrapperError) Error() string {
	return fmt.Sprintf("invalid shell wrapper %q: must contain %%s or %%S", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidShellWrapperError) Unwrap() error { return ErrInvalidShellWrapper }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutLib,
		Compile: CompileConfig{
			Recursive:     false,
			SourcePattern: "*.el",
		},
		Build: BuildConfig{
			First:     []string{"org"},
			Expensive: []string{},
			Makeinfo:  true,
			InitFiles: []string{"early-init.el", "init.el"},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			LogLevel:    LogLevelInfo,
		},
	}
}
