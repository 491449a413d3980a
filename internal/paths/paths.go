// Package paths resolves the XDG-derived filesystem locations nxpkg uses
// for its cache, configuration, and metadata store.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "nxpkg"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for downloaded archives and build scratch space.
//
//	Linux:   ~/.cache/nxpkg
//	macOS:   ~/Library/Caches/nxpkg
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// Path to the user configuration file, consulted after the system file and
// before environment variables.
//
//	Linux:   $XDG_CONFIG_HOME/nxpkg/config.cfg
func UserConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.cfg")
}

// Path to the system-wide configuration file, consulted after built-in
// defaults and before the user configuration file.
func SystemConfigFile() string {
	return filepath.Join("/etc", appName, "config.cfg")
}

// Default path to the bbolt metadata store.
//
//	Linux:   ~/.local/share/nxpkg/store.db
func DefaultStorePath() string {
	return filepath.Join(xdg.DataHome, appName, "store.db")
}
