package cli

import (
	"context"
	"log/slog"

	"github.com/nxpkg/nxpkg/internal/cfg"
	"github.com/nxpkg/nxpkg/internal/store"
)

// RemoveCmd uninstalls a package by name, deleting every file recorded in
// its installed-file manifest and then the store entry itself.
type RemoveCmd struct {
	Name string `arg:"" help:"Name of the package to remove."`
}

func (c *RemoveCmd) Run(ctx context.Context) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	db, err := store.Open(settings.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteRecipe(c.Name); err != nil {
		return err
	}

	slog.Info("removed package", "name", c.Name)
	return nil
}
