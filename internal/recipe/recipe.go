package recipe

import (
	"fmt"
	"strings"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// Identity and build description of a package, embedded in package.cfg and
// persisted by the metadata store.
type Recipe struct {
	Package Package
	Build   Build
	Install Install
}

// [package] section.
type Package struct {
	Name          string
	Version       string
	Architectures []string // empty means universal (any/noarch)
}

// [build] section.
type Build struct {
	Dependencies []string
	Commands     []string // reproducibility log, not re-executed on install
}

// [install] section. InstalledFiles is populated at install time, not read
// from package.cfg.
type Install struct {
	InstallParams  []string
	InstalledFiles []string
}

// Validates the invariants spec.md §3 places on a recipe: name and version
// non-empty.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Package.Name) == "" {
		return errkind.New(errkind.RecipeInvalid, "missing 'name' in [package]")
	}
	if strings.TrimSpace(r.Package.Version) == "" {
		return errkind.New(errkind.RecipeInvalid, "missing 'version' in [package]")
	}
	return nil
}

// Parses package.cfg content into a [Recipe].
//
// Unknown sections and keys are ignored. Comments begin with '#' or ';'.
func Parse(content string) (Recipe, error) {
	var r Recipe
	section := ""

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case "package":
			switch key {
			case "name":
				r.Package.Name = value
			case "version":
				r.Package.Version = value
			case "architectures":
				r.Package.Architectures = splitList(value, ",")
			}
		case "build":
			switch key {
			case "dependencies":
				r.Build.Dependencies = splitList(value, ",")
			case "commands":
				r.Build.Commands = splitList(value, ";")
			}
		case "install":
			if key == "install_params" {
				r.Install.InstallParams = splitList(value, ",")
			}
		}
	}

	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Renders a [Recipe] as package.cfg text.
func Render(r Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[package]\n")
	fmt.Fprintf(&b, "name = %s\n", r.Package.Name)
	fmt.Fprintf(&b, "version = %s\n", r.Package.Version)
	fmt.Fprintf(&b, "architectures = %s\n", strings.Join(r.Package.Architectures, ", "))
	fmt.Fprintf(&b, "\n[build]\n")
	fmt.Fprintf(&b, "dependencies = %s\n", strings.Join(r.Build.Dependencies, ", "))
	fmt.Fprintf(&b, "commands = %s\n", strings.Join(r.Build.Commands, "; "))
	fmt.Fprintf(&b, "\n[install]\n")
	fmt.Fprintf(&b, "install_params = %s\n", strings.Join(r.Install.InstallParams, ", "))

	return b.String()
}

func splitList(value, sep string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
