package cli

import (
	"context"
	"log/slog"

	"github.com/nxpkg/nxpkg/internal/archive"
	"github.com/nxpkg/nxpkg/internal/cfg"
	"github.com/nxpkg/nxpkg/internal/store"
)

// InstallCmd installs a prebuilt .nxpkg archive onto the host, recording the
// installed-file manifest in the metadata store.
type InstallCmd struct {
	Archive string `arg:"" help:"Path to a .nxpkg archive." type:"existingfile"`
	Root    string `help:"Destination root to install into." default:"/"`
}

func (c *InstallCmd) Run(ctx context.Context) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	rec, installed, err := archive.Unpack(c.Archive, c.Root)
	if err != nil {
		return err
	}
	rec.Install.InstalledFiles = installed

	db, err := store.Open(settings.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRecipe(rec); err != nil {
		return err
	}

	slog.Info("installed package",
		"name", rec.Package.Name,
		"version", rec.Package.Version,
		"files", len(installed),
	)
	return nil
}
