package cfg

import "testing"

func TestParseNxpkgSection(t *testing.T) {
	content := `
# comment
[other]
repo_url = ignored

[nxpkg]
repo_url = https://example.test/repo
require_signed_index = true
; another comment
db_path = /var/lib/nxpkg/store.db
`
	values, err := parseNxpkgSection(content)
	if err != nil {
		t.Fatal(err)
	}
	if values["repo_url"] != "https://example.test/repo" {
		t.Errorf("repo_url = %q", values["repo_url"])
	}
	if values["require_signed_index"] != "true" {
		t.Errorf("require_signed_index = %q", values["require_signed_index"])
	}
	if values["db_path"] != "/var/lib/nxpkg/store.db" {
		t.Errorf("db_path = %q", values["db_path"])
	}
}

func TestApplyValuesOverridesOnlyPresentKeys(t *testing.T) {
	c := Defaults()
	c.RepoURL = "https://base.test"

	applyValues(&c, map[string]string{"cache_dir": "/tmp/cache"})

	if c.RepoURL != "https://base.test" {
		t.Errorf("RepoURL = %q, want unchanged", c.RepoURL)
	}
	if c.CacheDir != "/tmp/cache" {
		t.Errorf("CacheDir = %q, want /tmp/cache", c.CacheDir)
	}
}

func TestMergeEnvOverridesRequireSignedIndex(t *testing.T) {
	c := Defaults()
	if c.RequireSignedIndex {
		t.Fatal("default RequireSignedIndex should be false")
	}

	t.Setenv("NXPKG_REQUIRE_SIGNED_INDEX", "true")
	mergeEnv(&c)

	if !c.RequireSignedIndex {
		t.Error("RequireSignedIndex = false, want true after env override")
	}
}

func TestParseBoolInvalidDefaultsFalse(t *testing.T) {
	if parseBool("not-a-bool") {
		t.Error("parseBool(\"not-a-bool\") = true, want false")
	}
}
