package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nxpkg/nxpkg/internal/arch"
	"github.com/nxpkg/nxpkg/internal/archive"
	"github.com/nxpkg/nxpkg/internal/buildsys"
	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/isolate"
	"github.com/nxpkg/nxpkg/internal/recipe"
	"github.com/nxpkg/nxpkg/internal/sandbox"
)

// State names the orchestrator's linear progress through a build.
type State int

const (
	Selected State = iota
	Cloned
	Prepared
	Moved
	Detected
	Configured
	Built
	Installed
	Packaged
	CleanedUp
)

func (s State) String() string {
	return [...]string{
		"Selected", "Cloned", "Prepared", "Moved", "Detected",
		"Configured", "Built", "Installed", "Packaged", "CleanedUp",
	}[s]
}

// Options controls a single pipeline run.
type Options struct {
	Source string // local directory, or a git URL to clone

	Name          string // package name; auto-derived if empty (see DeriveName)
	Version       string // package version; resolved if empty (see ResolveVersion)
	Architectures []string
	Dependencies  []string

	PreferredBuildKind *buildsys.Kind
	ConfigureArgs      []string
	BuildArgs          []string
	InstallArgs        []string

	SandboxRoot string // directory to prepare and tear down for this build
	OutputDir   string // directory to write the resulting .nxpkg archive into
}

// Result is returned after a successful pipeline run.
type Result struct {
	ArchivePath string
	Recipe      recipe.Recipe
	FinalState  State
}

// Run drives a source tree through the full state machine. On any failure
// it still attempts sandbox cleanup before returning, matching spec.md's
// "any failure short-circuits to CleanedUp" rule.
func Run(opts Options) (*Result, error) {
	state := Selected
	var cleanupErr error

	defer func() {
		if err := sandbox.Cleanup(opts.SandboxRoot); err != nil {
			cleanupErr = err
			slog.Warn("sandbox cleanup failed", "root", opts.SandboxRoot, "error", err)
		}
		state = CleanedUp
	}()

	sourceDir, err := resolveSource(opts.Source, opts.SandboxRoot)
	if err != nil {
		return nil, err
	}
	state = Cloned

	if err := sandbox.Prepare(opts.SandboxRoot); err != nil {
		return nil, err
	}
	state = Prepared

	buildRoot := filepath.Join(opts.SandboxRoot, "build")
	if err := moveInto(sourceDir, buildRoot); err != nil {
		return nil, errkind.Wrap(errkind.SandboxPrepareFailed, "move source into sandbox", err)
	}
	state = Moved

	candidate, err := buildsys.Detect(buildRoot, opts.PreferredBuildKind)
	if err != nil {
		return nil, err
	}
	state = Detected

	name := opts.Name
	if name == "" {
		name = DeriveName(sourceDir, arch.Host())
	}
	version := opts.Version
	if version == "" {
		version = ResolveVersion(candidate.Dir)
	}

	destDir := filepath.Join(opts.SandboxRoot, "pkg")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, errkind.Wrap(errkind.SandboxPrepareFailed, "create install staging directory", err)
	}

	// isolate.Run chroots to opts.SandboxRoot before exec'ing the build
	// tool, so every path handed to the tool (and to isolate.Options.Cwd)
	// must be relative to that new root, not the host filesystem.
	chrootSourceDir := chrootPath(opts.SandboxRoot, candidate.Dir)
	profile := buildsys.Profile{
		SourceDir:     chrootSourceDir,
		BuildDir:      filepath.Join(chrootSourceDir, "build"),
		DestDir:       chrootPath(opts.SandboxRoot, destDir),
		HostSourceDir: candidate.Dir,
		ConfigureArgs: opts.ConfigureArgs,
		BuildArgs:     opts.BuildArgs,
		InstallArgs:   opts.InstallArgs,
	}

	if err := runPhase(opts.SandboxRoot, buildsys.ConfigureCommands(candidate.Kind, profile)); err != nil {
		return nil, errkind.Wrap(errkind.BuildStepFailed, "build failed", err)
	}
	state = Configured

	if err := runPhase(opts.SandboxRoot, buildsys.BuildCommands(candidate.Kind, profile)); err != nil {
		return nil, errkind.Wrap(errkind.BuildStepFailed, "build failed", err)
	}
	state = Built

	if err := runPhase(opts.SandboxRoot, buildsys.InstallCommands(candidate.Kind, profile)); err != nil {
		return nil, errkind.Wrap(errkind.BuildStepFailed, "install failed", err)
	}
	state = Installed

	rec := recipe.Recipe{
		Package: recipe.Package{
			Name:          name,
			Version:       version,
			Architectures: opts.Architectures,
		},
		Build: recipe.Build{
			Dependencies: opts.Dependencies,
		},
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, errkind.Wrap(errkind.SandboxPrepareFailed, "create output directory", err)
	}
	archivePath := filepath.Join(opts.OutputDir, name+"-"+version+".nxpkg")
	if err := archive.Create(destDir, rec, archivePath); err != nil {
		return nil, err
	}
	state = Packaged

	if cleanupErr != nil {
		return nil, cleanupErr
	}

	return &Result{ArchivePath: archivePath, Recipe: rec, FinalState: state}, nil
}

// chrootPath rewrites a host-absolute path under sandboxRoot into the path
// the same file has once sandboxRoot itself becomes "/" (i.e. after
// isolate.Run's unix.Chroot(sandboxRoot)).
func chrootPath(sandboxRoot, hostPath string) string {
	rel := strings.TrimPrefix(hostPath, sandboxRoot)
	if rel == "" {
		return "/"
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// runPhase executes each command of a build phase in order under the
// isolation executor, stopping at the first failure.
func runPhase(sandboxRoot string, cmds []buildsys.Command) error {
	for _, cmd := range cmds {
		if len(cmd.Argv) == 0 {
			continue
		}
		command, args := cmd.Argv[0], cmd.Argv[1:]
		if len(cmd.Env) > 0 {
			// Per-command environment (e.g. CMake's DESTDIR) is passed
			// through env(1) inside the chroot.
			command = "env"
			args = append(append([]string{}, cmd.Env...), cmd.Argv...)
		}
		result, err := isolate.Run(isolate.Options{
			SandboxRoot: sandboxRoot,
			Command:     command,
			Args:        args,
			Cwd:         cmd.Dir,
		})
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return errkind.New(errkind.BuildStepFailed, "command exited non-zero")
		}
	}
	return nil
}
