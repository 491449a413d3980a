package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/nxpkg/nxpkg/internal"
)

// RootCmd is the root command for the nxpkg CLI.
var RootCmd struct {
	Quiet   bool `short:"q" help:"Suppress informational output."`
	Verbose bool `short:"v" help:"Enable verbose output."`
	Debug   bool `short:"d" help:"Enable debug output."`

	Install     InstallCmd     `cmd:"" help:"Install a prebuilt .nxpkg archive."`
	Remove      RemoveCmd      `cmd:"" help:"Remove an installed package."`
	Build       BuildCmd       `cmd:"" help:"Build and package a source tree, without installing."`
	Publish     PublishCmd     `cmd:"" help:"Publish an archive to the configured repository."`
	HealthCheck HealthCheckCmd `cmd:"healthcheck" help:"Check database, cache, index, and tool availability."`
	Version     VersionCmd     `cmd:"" help:"Show version information."`
}

// Execute parses arguments, configures logging, and runs the selected
// subcommand.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("A source-and-binary package manager with a sandboxed build pipeline."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// configureLogger reconfigures the global logger's level from the parsed
// flags, falling back to the build-time defaults tracked in internal.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(debug, quiet),
	})
	slog.SetDefault(slog.New(handler).WithGroup(internal.Name))
}

func logLevel(debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
