package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nxpkg/nxpkg/internal/archive"
	"github.com/nxpkg/nxpkg/internal/cfg"
	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/index"
)

var errNoRepoConfigured = errkind.New(errkind.ConfigInvalid, "no repository URL configured")

// PublishCmd uploads an archive to the configured repository and updates
// its signed index.
type PublishCmd struct {
	Archive        string `arg:"" help:"Path to a .nxpkg archive." type:"existingfile"`
	Description    string `help:"Description to record in the index entry."`
	BearerToken    string `help:"Bearer token for the repository's PUT endpoint, if required." env:"NXPKG_BEARER_TOKEN"`
	SigningKeypair string `help:"Base64 ed25519 keypair (seed||pubkey) to sign the index with, if required." env:"NXPKG_SIGNING_KEYPAIR"`
}

func (c *PublishCmd) Run(ctx context.Context) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}
	if settings.RepoURL == "" {
		return errNoRepoConfigured
	}

	rec, err := archive.ReadRecipeOnly(c.Archive)
	if err != nil {
		return err
	}

	if err := index.Publish(http.DefaultClient, index.PublishOptions{
		RepoURL:        settings.RepoURL,
		ArchivePath:    c.Archive,
		Recipe:         rec,
		Description:    c.Description,
		BearerToken:    c.BearerToken,
		SigningKeypair: c.SigningKeypair,
	}); err != nil {
		return err
	}

	slog.Info("published package", "name", rec.Package.Name, "version", rec.Package.Version)
	return nil
}
