package arch

import (
	"runtime"
	"strings"
)

// Tokens that always match any host architecture.
const (
	Any    = "any"
	NoArch = "noarch"
)

// Alias groups. Each inner slice holds tokens considered equivalent after
// normalization. The "arm" group collides across ABIs (armv6/armv7/armhf);
// this is a known imprecision inherited from the source distro's own
// tables, not resolved here.
var aliasGroups = [][]string{
	{"x86_64", "amd64", "x64"},
	{"aarch64", "arm64"},
	{"arm", "armv7", "armhf", "armv7l"},
	{"x86", "i686", "i386"},
	{"powerpc64", "ppc64", "ppc64le"},
}

// Normalizes a token for comparison: lowercase, '-' replaced with '_'.
func Normalize(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	return strings.ReplaceAll(token, "-", "_")
}

// Host returns the canonical architecture token for the running process,
// translating Go's GOARCH names amd64, arm64 and 386 into the x86_64,
// aarch64 and i686 tokens used by the index; any other GOARCH is returned
// unchanged.
func Host() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	case "arm":
		return "arm"
	default:
		return runtime.GOARCH
	}
}

// Reports whether token matches the host architecture, either directly,
// via an alias group, or because token is the universal "any"/"noarch".
func MatchesHost(token string) bool {
	return Matches(token, Host())
}

// Reports whether token matches candidate, either directly, via an alias
// group, or because token is "any"/"noarch".
func Matches(token, candidate string) bool {
	t := Normalize(token)
	if t == Any || t == NoArch {
		return true
	}
	c := Normalize(candidate)
	if t == c {
		return true
	}
	group := groupOf(c)
	if group == nil {
		return false
	}
	for _, g := range group {
		if Normalize(g) == t {
			return true
		}
	}
	return false
}

// Reports whether at least one token in tokens matches the host, treating
// an empty list as universal (spec.md §3: "when architectures is non-empty
// it must contain at least one token compatible with the host").
func AnyMatchesHost(tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if MatchesHost(t) {
			return true
		}
	}
	return false
}

// Canonicalizes token using the publish-path table of original_source's
// upload.rs: x86_64/aarch64/arm pass through, x86 and i686 both canonicalize
// to i686, anything else is returned unchanged.
func Canonical(token string) string {
	switch Normalize(token) {
	case "x86_64":
		return "x86_64"
	case "aarch64":
		return "aarch64"
	case "arm":
		return "arm"
	case "i686", "x86":
		return "i686"
	default:
		return token
	}
}

func groupOf(normalized string) []string {
	for _, group := range aliasGroups {
		for _, g := range group {
			if Normalize(g) == normalized {
				return group
			}
		}
	}
	return nil
}
