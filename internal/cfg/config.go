package cfg

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/paths"
)

// Config is the resolved configuration surface.
type Config struct {
	RepoURL            string
	DBPath             string
	CacheDir           string
	RequireSignedIndex bool
	PubkeyPath         string
}

// Defaults returns the built-in configuration, before any file or
// environment overrides are applied.
func Defaults() Config {
	return Config{
		DBPath:             paths.DefaultStorePath(),
		CacheDir:           paths.CacheDir(),
		RequireSignedIndex: false,
	}
}

// Load resolves the full configuration: defaults, then the system config
// file, then the user config file, then environment variables, each
// overriding fields set by the previous layer. Missing files are not an
// error; a malformed present file is.
func Load() (Config, error) {
	c := Defaults()

	if err := mergeFile(&c, paths.SystemConfigFile()); err != nil {
		return Config{}, err
	}
	if err := mergeFile(&c, paths.UserConfigFile()); err != nil {
		return Config{}, err
	}
	mergeEnv(&c)

	return c, nil
}

func mergeFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errkind.Wrap(errkind.ConfigInvalid, "read config file "+path, err)
	}

	values, err := parseNxpkgSection(string(data))
	if err != nil {
		return errkind.Wrap(errkind.ConfigInvalid, "parse config file "+path, err)
	}

	applyValues(c, values)
	return nil
}

func mergeEnv(c *Config) {
	values := make(map[string]string)
	if v, ok := os.LookupEnv("NXPKG_REPO_URL"); ok {
		values["repo_url"] = v
	}
	if v, ok := os.LookupEnv("NXPKG_DB_PATH"); ok {
		values["db_path"] = v
	}
	if v, ok := os.LookupEnv("NXPKG_CACHE_DIR"); ok {
		values["cache_dir"] = v
	}
	if v, ok := os.LookupEnv("NXPKG_REQUIRE_SIGNED_INDEX"); ok {
		values["require_signed_index"] = v
	}
	if v, ok := os.LookupEnv("NXPKG_PUBKEY_PATH"); ok {
		values["pubkey_path"] = v
	}
	applyValues(c, values)
}

func applyValues(c *Config, values map[string]string) {
	if v, ok := values["repo_url"]; ok {
		c.RepoURL = v
	}
	if v, ok := values["db_path"]; ok {
		c.DBPath = v
	}
	if v, ok := values["cache_dir"]; ok {
		c.CacheDir = v
	}
	if v, ok := values["require_signed_index"]; ok {
		c.RequireSignedIndex = parseBool(v)
	}
	if v, ok := values["pubkey_path"]; ok {
		c.PubkeyPath = v
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

// parseNxpkgSection parses the "[nxpkg]\nkey = value" grammar shared with
// internal/recipe, returning the key/value pairs found under the [nxpkg]
// section. Keys outside any section, or under a different section, are
// ignored.
func parseNxpkgSection(content string) (map[string]string, error) {
	values := make(map[string]string)
	section := ""

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			continue
		}

		if section != "nxpkg" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return values, nil
}
