package pipeline

import (
	"path/filepath"
	"strings"
)

// DeriveName implements spec.md's limited package-name auto-derivation: a
// source folder whose lowercased name contains "mesa" becomes
// "mesa-<arch>"; one named "linux" or containing "kernel" becomes
// "linux-<arch>". Any other folder name returns "", leaving the caller to
// supply a name explicitly.
func DeriveName(sourceDir, archToken string) string {
	folder := strings.ToLower(filepath.Base(sourceDir))

	switch {
	case strings.Contains(folder, "mesa"):
		return "mesa-" + archToken
	case folder == "linux" || strings.Contains(folder, "kernel"):
		return "linux-" + archToken
	default:
		return ""
	}
}
