package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nxpkg/nxpkg/internal/recipe"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Open() err: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRecipe(t *testing.T) {
	s := openTestStore(t)

	rec := recipe.Recipe{Package: recipe.Package{Name: "demo", Version: "1.0.0"}}
	if err := s.SaveRecipe(rec); err != nil {
		t.Fatalf("SaveRecipe() err: %v", err)
	}

	got, ok, err := s.LoadRecipe("demo")
	if err != nil || !ok {
		t.Fatalf("LoadRecipe() = %+v, %v, %v", got, ok, err)
	}
	if got.Package.Version != "1.0.0" {
		t.Errorf("LoadRecipe() = %+v", got)
	}

	_, ok, err = s.LoadRecipe("missing")
	if err != nil || ok {
		t.Fatalf("LoadRecipe(missing) = ok=%v, err=%v, want ok=false", ok, err)
	}
}

func TestDeleteRecipeRemovesFilesAndPrunesDirs(t *testing.T) {
	s := openTestStore(t)
	root := t.TempDir()

	binPath := filepath.Join(root, "usr", "bin", "demo")
	sharePath := filepath.Join(root, "usr", "share", "demo", "readme")
	for _, p := range []string{binPath, sharePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := recipe.Recipe{
		Package: recipe.Package{Name: "demo", Version: "1.0.0"},
		Install: recipe.Install{InstalledFiles: []string{binPath, sharePath}},
	}
	if err := s.SaveRecipe(rec); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRecipe("demo"); err != nil {
		t.Fatalf("DeleteRecipe() err: %v", err)
	}

	for _, p := range []string{binPath, sharePath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "usr", "share", "demo")); !os.IsNotExist(err) {
		t.Error("emptied share/demo directory was not pruned")
	}

	_, ok, err := s.LoadRecipe("demo")
	if err != nil || ok {
		t.Fatalf("LoadRecipe after delete = ok=%v, err=%v, want ok=false", ok, err)
	}
}

func TestDeleteRecipePreDeletedFileStillSucceeds(t *testing.T) {
	s := openTestStore(t)

	rec := recipe.Recipe{
		Package: recipe.Package{Name: "demo", Version: "1.0.0"},
		Install: recipe.Install{InstalledFiles: []string{filepath.Join(t.TempDir(), "gone")}},
	}
	if err := s.SaveRecipe(rec); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRecipe("demo"); err != nil {
		t.Fatalf("DeleteRecipe() err: %v, want nil even though file was pre-deleted", err)
	}

	_, ok, _ := s.LoadRecipe("demo")
	if ok {
		t.Error("store entry still present after delete")
	}
}

func TestSaveLoadBuildProfile(t *testing.T) {
	s := openTestStore(t)

	profile := BuildProfile{Name: "demo", BuildSystem: "cmake", ConfigureArgs: []string{"-DFOO=1"}}
	if err := s.SaveBuildProfile(profile); err != nil {
		t.Fatalf("SaveBuildProfile() err: %v", err)
	}

	got, ok, err := s.LoadBuildProfile("demo")
	if err != nil || !ok {
		t.Fatalf("LoadBuildProfile() = %+v, %v, %v", got, ok, err)
	}
	if got.BuildSystem != "cmake" || len(got.ConfigureArgs) != 1 {
		t.Errorf("LoadBuildProfile() = %+v", got)
	}
}
