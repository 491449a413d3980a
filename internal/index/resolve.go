package index

import (
	"github.com/nxpkg/nxpkg/internal/arch"
)

// ResolveAsset picks the download asset for entry matching the host
// architecture: searches the per-architecture map first (via the alias
// table in internal/arch, which also accepts "any"/"noarch"), then falls
// back to the legacy single-asset fields. Returns ok=false only when no
// asset can be selected at all.
func ResolveAsset(entry PackageEntry) (url, sha256 string, ok bool) {
	for token, asset := range entry.Architectures {
		if arch.MatchesHost(token) {
			return asset.DownloadURL, asset.SHA256, true
		}
	}
	if entry.DownloadURL != "" {
		return entry.DownloadURL, entry.SHA256, true
	}
	return "", "", false
}
