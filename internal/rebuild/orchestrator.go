// SPDX-License-Identifier: MPL-2.0

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/droneyard/droneyard/internal/autoload"
	"github.com/droneyard/droneyard/internal/compile"
	"github.com/droneyard/droneyard/internal/manual"
	"github.com/droneyard/droneyard/internal/registry"
	"github.com/droneyard/droneyard/pkg/drone"
)

// Skip reasons reported for drones that were not built.
const (
	SkipNone      SkipReason = ""
	SkipDisabled  SkipReason = "Disabled"
	SkipMissing   SkipReason = "Missing"
	SkipExpensive SkipReason = "Expensive"
	// SkipOutside marks a worktree registered outside the drones directory.
	SkipOutside SkipReason = "Outside"
)

// DefaultFirst is the default priority list: org is built before every
// other drone because other drones' compilation may load it.
var DefaultFirst = []string{"org"}

// DefaultInitFiles are the host init files recompiled after a rebuild.
var DefaultInitFiles = []string{"early-init.el", "init.el"}

type (
	// SkipReason tags why a drone was not built.
	SkipReason string

	// AutoloadGenerator writes a drone's autoloads file.
	AutoloadGenerator interface {
		Generate(ctx context.Context, req autoload.Request) (string, error)
	}

	// CompileRunner byte-compiles drones and loose files.
	CompileRunner interface {
		Compile(ctx context.Context, req compile.Request) compile.Tally
		CompileFiles(ctx context.Context, files, loadPath []string) compile.Tally
	}

	// ManualBuilder builds a drone's Info manuals.
	ManualBuilder interface {
		Build(ctx context.Context, sess *registry.Session, name drone.Name) (manual.Report, error)
	}

	// StepRunner runs declared build steps in a worktree.
	StepRunner interface {
		RunAll(ctx context.Context, dir string, steps []drone.Step) error
	}

	// Options selects the RebuildAll mode.
	Options struct {
		// Quick defers expensive drones.
		Quick bool
		// Batch confirms a non-interactive context.
		Batch bool
	}

	// Report is the outcome for one drone.
	Report struct {
		Name      drone.Name
		Skip      SkipReason
		Autoloads string
		Tally     compile.Tally
		Manual    manual.Report
		Err       error
	}

	// Summary is the outcome of RebuildAll.
	Summary struct {
		Drones []Report
		Host   compile.Tally
	}

	// Orchestrator builds drones of one registry.
	Orchestrator struct {
		Registry  *registry.Registry
		Autoloads AutoloadGenerator
		Compiler  CompileRunner
		Manuals   ManualBuilder
		Steps     StepRunner
		Activator Activator

		// First lists drones built before all others, in order.
		First []string
		// Expensive lists drones deferred in quick mode, in addition to
		// drones that declare build steps.
		Expensive []string
		// InitFiles are host files, relative to the top-level directory,
		// compiled after every rebuild.
		InitFiles []string
		// BuildManuals enables the manual builder.
		BuildManuals bool
		// Recursive is the default for recursiveByteCompile.
		Recursive bool
	}
)

// Built reports whether the drone went through a build without error.
func (r Report) Built() bool { return r.Skip == SkipNone && r.Err == nil }

// Counts returns the number of built, skipped and failed drones.
func (s Summary) Counts() (built, skipped, failed int) {
	for _, r := range s.Drones {
		switch {
		case r.Skip != SkipNone:
			skipped++
		case r.Err != nil:
			failed++
		default:
			built++
		}
	}
	return built, skipped, failed
}

// CompileFailures returns the number of files that failed to compile
// across all drones and the host.
func (s Summary) CompileFailures() int {
	n := s.Host.Failed
	for _, r := range s.Drones {
		n += r.Tally.Failed
	}
	return n
}

// String is the final summary line.
func (s Summary) String() string {
	built, skipped, failed := s.Counts()
	return fmt.Sprintf("%d built, %d skipped, %d failed, %d files failed to compile",
		built, skipped, failed, s.CompileFailures())
}

// RebuildAll rebuilds every enabled drone checked out below the drones
// directory, then the host init files. Drones are built one at a time in
// name order, except that drones listed in First come first. Per-drone
// failures, including a failed artifact cleanup, are recorded on the
// drone's report and never stop the run. It fails with ErrUsage unless
// opts.Batch is set.
func (o *Orchestrator) RebuildAll(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	if !opts.Batch {
		return summary, ErrUsage
	}

	sess := o.session()
	if err := sess.Prime(ctx, o.Registry.Store()); err != nil {
		return summary, err
	}
	table := sess.Cache()

	assimilated, err := o.Registry.ListAssimilated(ctx, sess, registry.FilterAssimilated)
	if err != nil {
		return summary, err
	}
	inDronesDir := make(map[drone.Name]bool, len(assimilated))
	for _, e := range assimilated {
		inDronesDir[e.Name] = true
	}

	for _, name := range Prioritize(table.Names(), o.First) {
		if strings.ContainsAny(string(name), `/\`) {
			slog.Warn("ignore malformed drone name", "drone", name)
			continue
		}
		summary.Drones = append(summary.Drones, Report{
			Name: name,
			Skip: o.skipReason(table[name], name, inDronesDir[name], opts.Quick),
		})
	}

	var hostLoadPath []string
	for i := range summary.Drones {
		report := &summary.Drones[i]
		if report.Skip != SkipNone {
			continue
		}
		dirs, err := o.prepare(ctx, sess, report.Name)
		if err != nil {
			report.Err = err
			continue
		}
		hostLoadPath = append(hostLoadPath, dirs...)
	}

	for i := range summary.Drones {
		report := &summary.Drones[i]
		if report.Skip != SkipNone || report.Err != nil {
			logReport(*report)
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		*report = o.build(ctx, sess, report.Name)
		logReport(*report)
	}

	summary.Host = o.Compiler.CompileFiles(ctx, o.initFiles(), hostLoadPath)
	slog.Info("rebuilt host init files", "tally", summary.Host.String())
	slog.Info("rebuild finished", "summary", summary.String())
	return summary, nil
}

// Build builds one drone. A drone whose worktree is missing is reported
// as skipped. The returned error is the report's error.
func (o *Orchestrator) Build(ctx context.Context, sess *registry.Session, name drone.Name) (Report, error) {
	if sess == nil {
		sess = o.session()
	}
	props, err := o.Registry.Props(ctx, sess, name)
	if err != nil {
		return Report{Name: name, Err: err}, err
	}
	if !isDir(o.Registry.Worktree(props, name)) {
		return Report{Name: name, Skip: SkipMissing}, nil
	}
	report := o.build(ctx, sess, name)
	logReport(report)
	return report, report.Err
}

func (o *Orchestrator) build(ctx context.Context, sess *registry.Session, name drone.Name) Report {
	report := Report{Name: name}

	props, err := o.Registry.Props(ctx, sess, name)
	if err != nil {
		report.Err = err
		return report
	}
	wt := o.Registry.Worktree(props, name)

	if steps := props.Steps(); len(steps) > 0 {
		if err := o.Steps.RunAll(ctx, wt, steps); err != nil {
			report.Err = err
			return report
		}
	} else {
		loadPath, err := o.Registry.ResolveLoadPath(ctx, sess, name)
		if err != nil {
			report.Err = err
			return report
		}
		exclude := props.List(drone.PropNoByteCompile)

		report.Autoloads, err = o.Autoloads.Generate(ctx, autoload.Request{
			Drone:       name,
			Worktree:    wt,
			SearchPaths: loadPath,
			Exclude:     exclude,
		})
		if err != nil {
			report.Err = err
			return report
		}

		report.Tally = o.Compiler.Compile(ctx, compile.Request{
			Drone:       name,
			Worktree:    wt,
			SearchPaths: loadPath,
			Exclude:     exclude,
			Recursive:   sess.RecursiveFor(props),
		})

		if o.BuildManuals && o.Manuals != nil {
			report.Manual, err = o.Manuals.Build(ctx, sess, name)
			if err != nil {
				report.Err = err
				return report
			}
		}
	}

	if o.Activator != nil {
		if err := o.Activator.Activate(ctx, name); err != nil {
			report.Err = &ActivationError{Name: name, Err: err}
		}
	}
	return report
}

// prepare resolves the search paths of a candidate and removes its stale
// artifacts.
func (o *Orchestrator) prepare(ctx context.Context, sess *registry.Session, name drone.Name) ([]string, error) {
	dirs, err := o.Registry.ResolveLoadPath(ctx, sess, name)
	if err != nil {
		return nil, err
	}
	removed, err := Clean(dirs)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", name, err)
	}
	slog.Debug("removed stale artifacts", "drone", name, "files", removed)
	return dirs, nil
}

// skipReason classifies a registered drone. inDronesDir reports whether
// the registry lists it as assimilated: checked out below the drones
// directory.
func (o *Orchestrator) skipReason(props drone.Properties, name drone.Name, inDronesDir, quick bool) SkipReason {
	switch {
	case props.Bool(drone.PropDisabled):
		return SkipDisabled
	case !inDronesDir && isDir(o.Registry.Worktree(props, name)):
		return SkipOutside
	case !inDronesDir:
		return SkipMissing
	case quick && (len(props.List(drone.PropBuildStep)) > 0 || slices.Contains(o.Expensive, string(name))):
		return SkipExpensive
	default:
		return SkipNone
	}
}

func (o *Orchestrator) session() *registry.Session {
	sess := registry.NewSession()
	sess.Recursive = o.Recursive
	return sess
}

func (o *Orchestrator) initFiles() []string {
	files := o.InitFiles
	if files == nil {
		files = DefaultInitFiles
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(o.Registry.Top(), f))
	}
	return paths
}

// Prioritize orders names alphabetically with the names listed in first
// moved to the front, in first's order. Names in first that are absent
// are ignored.
func Prioritize(names []drone.Name, first []string) []drone.Name {
	sorted := slices.Clone(names)
	slices.Sort(sorted)

	ordered := make([]drone.Name, 0, len(sorted))
	for _, f := range first {
		if slices.Contains(sorted, drone.Name(f)) && !slices.Contains(ordered, drone.Name(f)) {
			ordered = append(ordered, drone.Name(f))
		}
	}
	for _, name := range sorted {
		if !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

// Clean removes compiled files, autoloads and loaddefs below dirs, so the
// next build starts from source. Hidden directories are not entered. It
// returns the number of files removed.
func Clean(dirs []string) (int, error) {
	removed := 0
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if path != dir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), drone.CompiledExt) && !drone.IsGenerated(d.Name()) {
				return nil
			}
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
			return nil
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func logReport(r Report) {
	switch {
	case r.Skip != SkipNone:
		slog.Info("skip drone", "drone", r.Name, "reason", string(r.Skip))
	case r.Err != nil:
		slog.Error("build failed", "drone", r.Name, "error", r.Err)
	default:
		slog.Info("built drone", "drone", r.Name, "tally", r.Tally.String())
	}
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
