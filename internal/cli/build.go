package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/nxpkg/nxpkg/internal/cfg"
	"github.com/nxpkg/nxpkg/internal/pipeline"
)

// BuildCmd runs the full build-and-package pipeline against a source tree
// (a local directory, or a git URL to clone) without installing the result.
type BuildCmd struct {
	Source  string   `arg:"" help:"Source directory or git URL to build."`
	Name    string   `help:"Package name. Auto-derived from the source folder name when possible."`
	Version string   `help:"Package version. Resolved from Cargo.toml or git describe when omitted."`
	Arch    []string `name:"arch" help:"Declared package architectures (empty means universal)."`
	Output  string   `help:"Directory to write the resulting .nxpkg archive into." default:"."`
}

func (c *BuildCmd) Run(ctx context.Context) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	sandboxRoot, err := os.MkdirTemp(settings.CacheDir, "nxpkg-build-*")
	if err != nil {
		return err
	}

	result, err := pipeline.Run(pipeline.Options{
		Source:        c.Source,
		Name:          c.Name,
		Version:       c.Version,
		Architectures: c.Arch,
		SandboxRoot:   sandboxRoot,
		OutputDir:     c.Output,
	})
	if err != nil {
		return err
	}

	slog.Info("built package",
		"name", result.Recipe.Package.Name,
		"version", result.Recipe.Package.Version,
		"archive", result.ArchivePath,
	)
	return nil
}
