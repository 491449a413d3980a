package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/recipe"
)

var (
	recipesBucket  = []byte("recipes")
	profilesBucket = []byte("profiles")
)

// BuildProfile is the persisted build configuration for a package: an
// optional preferred build-system tag and extra arguments for each of the
// three command phases.
type BuildProfile struct {
	Name          string
	BuildSystem   string // empty means auto-detect
	ConfigureArgs []string
	BuildArgs     []string
	InstallArgs   []string
}

// Store is a single-writer, persistent mapping from package name to recipe
// and build profile, backed by a bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the bbolt database at path and
// ensures its buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errkind.Wrap(errkind.StoreIoError, "create store directory", err)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, errkind.Wrap(errkind.StoreIoError, "open store at "+path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recipesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(profilesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errkind.Wrap(errkind.StoreIoError, "initialize store buckets", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecipe saves or replaces the recipe for rec.Package.Name.
func (s *Store) SaveRecipe(rec recipe.Recipe) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errkind.Wrap(errkind.StoreIoError, "marshal recipe", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recipesBucket).Put([]byte(rec.Package.Name), data)
	})
}

// LoadRecipe returns the recipe for name, or ok=false if absent.
func (s *Store) LoadRecipe(name string) (rec recipe.Recipe, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(recipesBucket).Get([]byte(name))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return recipe.Recipe{}, false, errkind.Wrap(errkind.StoreIoError, "load recipe "+name, err)
	}
	return rec, ok, nil
}

// DeleteRecipe removes name's recipe. Every path in its installed-files
// manifest is deleted first, best-effort (a failure is logged, not fatal
// and does not abort the operation); the unique set of parent directories
// is then pruned, deepest-first, removing each only if it is present and
// empty; the store entry is removed last, after file cleanup has been
// attempted. If name has no recipe, this is a no-op.
func (s *Store) DeleteRecipe(name string) error {
	rec, ok, err := s.LoadRecipe(name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for _, path := range rec.Install.InstalledFiles {
		if _, statErr := os.Lstat(path); statErr != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("could not remove installed file", "path", path, "error", err)
		}
	}

	pruneEmptyParents(rec.Install.InstalledFiles)

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recipesBucket).Delete([]byte(name))
	})
}

// pruneEmptyParents removes the unique set of parent directories of files,
// sorted by descending path length so children are removed before parents,
// deleting each only if it still exists and is empty.
func pruneEmptyParents(files []string) {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			slog.Warn("could not remove empty directory", "path", dir, "error", err)
		}
	}
}

// SaveBuildProfile saves or replaces the build profile for profile.Name.
func (s *Store) SaveBuildProfile(profile BuildProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return errkind.Wrap(errkind.StoreIoError, "marshal build profile", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(profilesBucket).Put([]byte(profile.Name), data)
	})
}

// LoadBuildProfile returns the build profile for name, or ok=false if
// absent.
func (s *Store) LoadBuildProfile(name string) (profile BuildProfile, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(profilesBucket).Get([]byte(name))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &profile)
	})
	if err != nil {
		return BuildProfile{}, false, errkind.Wrap(errkind.StoreIoError, "load build profile "+name, err)
	}
	return profile, ok, nil
}
