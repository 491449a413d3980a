package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nxpkg/nxpkg/internal/cfg"
	"github.com/nxpkg/nxpkg/internal/index"
	"github.com/nxpkg/nxpkg/internal/store"
)

// HealthCheckCmd reports a single pass/fail summary over database
// accessibility, cache write permissions, index fetch (if a repository is
// configured), and toolchain availability, per spec.md §7's
// user-visible-behavior rule.
type HealthCheckCmd struct{}

func (c *HealthCheckCmd) Run(ctx context.Context) error {
	settings, err := cfg.Load()
	if err != nil {
		return err
	}

	ok := true

	if err := checkStore(settings.DBPath); err != nil {
		fmt.Printf("database:  FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Println("database:  OK")
	}

	if err := checkCacheWritable(settings.CacheDir); err != nil {
		fmt.Printf("cache:     FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Println("cache:     OK")
	}

	if settings.RepoURL == "" {
		fmt.Println("index:     SKIPPED (no repository configured)")
	} else if err := checkIndex(settings); err != nil {
		fmt.Printf("index:     FAIL (%v)\n", err)
		ok = false
	} else {
		fmt.Println("index:     OK")
	}

	missing := missingToolchainBinaries()
	if len(missing) > 0 {
		fmt.Printf("toolchain: PARTIAL (missing: %v)\n", missing)
	} else {
		fmt.Println("toolchain: OK")
	}

	if !ok {
		return errHealthCheckFailed
	}
	return nil
}

func checkIndex(settings cfg.Config) error {
	pubkey := ""
	if settings.PubkeyPath != "" {
		data, err := os.ReadFile(settings.PubkeyPath)
		if err != nil {
			return err
		}
		pubkey = string(data)
	}
	_, err := index.FetchIndex(http.DefaultClient, settings.RepoURL, pubkey, settings.RequireSignedIndex)
	return err
}

func checkStore(path string) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	return db.Close()
}

func checkCacheWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func missingToolchainBinaries() []string {
	var missing []string
	for _, bin := range []string{"bash", "sh", "make", "gcc", "git"} {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}
