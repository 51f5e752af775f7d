// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/droneyard/droneyard/internal/autoload"
	"github.com/droneyard/droneyard/internal/buildstep"
	"github.com/droneyard/droneyard/internal/compile"
	"github.com/droneyard/droneyard/internal/config"
	"github.com/droneyard/droneyard/internal/lifecycle"
	"github.com/droneyard/droneyard/internal/manual"
	"github.com/droneyard/droneyard/internal/rebuild"
	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/internal/resolve"
	"github.com/droneyard/droneyard/internal/vcs"
	"github.com/droneyard/droneyard/pkg/drone"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and build their services through it.
	App struct {
		Config ConfigProvider
		// GitRunner replaces the git process runner when non-nil.
		GitRunner vcs.Runner
		// Executable returns the path of the running binary, used to spawn
		// build workers.
		Executable func() (string, error)
		// IsBatch reports whether the process runs without a terminal.
		IsBatch func() bool

		stdout io.Writer
		stderr io.Writer

		// flag values, set by the root command
		configPath string
		hostDir    string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		GitRunner  vcs.Runner
		Executable func() (string, error)
		IsBatch    func() bool
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// workspace bundles the services of one host repository.
	workspace struct {
		cfg          *config.Config
		registry     *registry.Registry
		orchestrator *rebuild.Orchestrator
		manager      *lifecycle.Manager
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Executable == nil {
		deps.Executable = os.Executable
	}
	if deps.IsBatch == nil {
		deps.IsBatch = stdinIsBatch
	}

	return &App{
		Config:     deps.Config,
		GitRunner:  deps.GitRunner,
		Executable: deps.Executable,
		IsBatch:    deps.IsBatch,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// loadOptions returns the config loading options from the global flags.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath}
}

// loadConfig loads the configuration and applies flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if a.hostDir != "" {
		cfg.HostDir = a.hostDir
	}
	if a.verbose {
		cfg.UI.Verbose = true
	}
	return cfg, nil
}

// gateway returns the git gateway for dir.
func (a *App) gateway(cfg *config.Config, dir string) *vcs.Gateway {
	opts := []vcs.Option{vcs.WithBinary(string(cfg.GitBinary))}
	if a.GitRunner != nil {
		opts = append(opts, vcs.WithRunner(a.GitRunner))
	}
	return vcs.New(dir, opts...)
}

// workspace opens the host repository and wires the build and lifecycle
// services from the configuration.
func (a *App) workspace(ctx context.Context) (*workspace, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	dir := cfg.HostDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	reg, err := registry.Open(ctx, a.gateway(cfg, dir), registry.Options{
		DronesDir: cfg.DronesDir,
		Layout:    registry.Layout(cfg.Layout),
	})
	if err != nil {
		return nil, err
	}

	orch := &rebuild.Orchestrator{
		Registry:  reg,
		Autoloads: &autoload.Generator{},
		Compiler: &compile.Pipeline{
			Compiler:      compile.EmacsCompiler{Binary: cfg.EmacsBinary.Or(compile.DefaultEmacs)},
			Recursive:     cfg.Compile.Recursive,
			SourcePattern: cfg.Compile.SourcePattern,
		},
		Manuals: &manual.Builder{
			Registry: reg,
			Converter: manual.ExecConverter{
				MakeinfoBinary:    cfg.MakeinfoBinary.Or(manual.DefaultMakeinfo),
				InstallInfoBinary: cfg.InstallInfoBinary.Or(manual.DefaultInstallInfo),
			},
		},
		Steps: &buildstep.Runner{
			ShellWrapper: cfg.Build.ShellWrapper,
			Stdout:       a.stdout,
			Stderr:       a.stderr,
		},
		Activator:    rebuild.NopActivator{},
		First:        cfg.Build.First,
		Expensive:    cfg.Build.Expensive,
		InitFiles:    cfg.Build.InitFiles,
		BuildManuals: cfg.Build.Makeinfo,
		Recursive:    cfg.Compile.Recursive,
	}

	mgr := &lifecycle.Manager{
		Registry: reg,
		Builder:  orch,
		Refresh: func(name drone.Name) {
			slog.Info("drone is ready; load it or restart Emacs", "drone", name)
		},
	}
	if cfg.UI.Verbose {
		mgr.OnTransition = func(op lifecycle.Op, name drone.Name, state lifecycle.State) {
			fmt.Fprintln(a.stderr, VerboseStyle.Render(fmt.Sprintf("%s %s: %s", op, name, state)))
		}
	}

	return &workspace{cfg: cfg, registry: reg, orchestrator: orch, manager: mgr}, nil
}

// absorber detects the metadata absorb strategy for the workspace's git.
func (w *workspace) absorber(ctx context.Context) (lifecycle.Absorber, error) {
	if w.manager.Absorber != nil {
		return w.manager.Absorber, nil
	}
	abs, err := lifecycle.DetectAbsorber(ctx, w.registry.Gateway())
	if err != nil {
		return nil, err
	}
	w.manager.Absorber = abs
	return abs, nil
}

// resolver builds the name/URL resolver. verify adds the remote
// reachability check.
func (a *App) resolver(ctx context.Context, verify bool) (*resolve.Resolver, error) {
	gh, err := resolve.NewGitHubResolver(ctx, os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return nil, err
	}
	r := &resolve.Resolver{GitHub: gh}
	if verify {
		r.Checker = resolve.NewRemoteChecker()
	}
	return r, nil
}

// workerEnv carries the global flags into a build worker.
func (a *App) workerEnv(cfg *config.Config) []string {
	var env []string
	if a.configPath != "" {
		env = append(env, configFileEnv+"="+a.configPath)
	}
	if cfg.HostDir != "" {
		env = append(env, config.EnvPrefix+"_HOST_DIR="+cfg.HostDir)
	}
	if cfg.UI.Verbose {
		env = append(env, config.EnvPrefix+"_UI_VERBOSE=true")
	}
	return env
}
