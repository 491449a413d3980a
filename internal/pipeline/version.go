package pipeline

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveVersion implements spec.md's fallback chain: a Cargo.toml
// [package].version field, else `git describe --tags --always` in dir,
// else the literal "0.0.0".
func ResolveVersion(dir string) string {
	if v, ok := cargoTomlVersion(filepath.Join(dir, "Cargo.toml")); ok {
		return v
	}
	if v, ok := gitDescribe(dir); ok {
		return v
	}
	return "0.0.0"
}

// cargoTomlVersion extracts [package].version from a Cargo.toml without a
// full TOML parser: the file's structure is simple enough that scanning
// for a "[package]" section and a "version = ..." line suffices, matching
// the scope of original_source's own recipe detection.
func cargoTomlVersion(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	inPackage := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inPackage = line == "[package]"
			continue
		}
		if !inPackage {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "version" {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`), true
	}
	return "", false
}

func gitDescribe(dir string) (string, bool) {
	out, err := exec.Command("git", "-C", dir, "describe", "--tags", "--always").Output()
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "", false
	}
	return v, true
}
