package main

import (
	"log/slog"
	"os"

	"github.com/nxpkg/nxpkg/internal"
	"github.com/nxpkg/nxpkg/internal/cli"
	"github.com/nxpkg/nxpkg/internal/isolate"
)

// Entry point for the nxpkg CLI.
//
// Before anything else, isolate.MaybeRunChild checks whether this process
// invocation is the re-exec'd isolation child started by a previous nxpkg
// process (see internal/isolate); if so it runs the sandboxed command and
// never returns. Otherwise the normal install/remove/build/publish/
// healthcheck/version CLI dispatches.
func main() {
	isolate.MaybeRunChild()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)).WithGroup(internal.Name))

	slog.Debug("build", "version", internal.VersionString())
	slog.Debug("nxpkg invoked", "pid", os.Getpid(), "cwd", cwd(), "args", os.Args)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return dir
}
