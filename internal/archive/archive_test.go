package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/recipe"
)

func demoRecipe() recipe.Recipe {
	return recipe.Recipe{
		Package: recipe.Package{Name: "demo", Version: "1.2.3"},
		Build:   recipe.Build{Commands: []string{"make"}},
	}
}

func TestCreateUnpackRoundTrip(t *testing.T) {
	staging := t.TempDir()
	if err := os.MkdirAll(filepath.Join(staging, "usr", "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "usr", "bin", "demo"), []byte("#!/bin/sh\necho hi\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("demo", filepath.Join(staging, "usr", "bin", "demo-link")); err != nil {
		t.Fatal(err)
	}

	archivePath := filepath.Join(t.TempDir(), "demo-1.2.3.nxpkg")
	if err := Create(staging, demoRecipe(), archivePath); err != nil {
		t.Fatalf("Create() err: %v", err)
	}

	gotRecipe, err := ReadRecipeOnly(archivePath)
	if err != nil {
		t.Fatalf("ReadRecipeOnly() err: %v", err)
	}
	if gotRecipe.Package.Name != "demo" || gotRecipe.Package.Version != "1.2.3" {
		t.Errorf("ReadRecipeOnly() = %+v", gotRecipe)
	}

	dest := t.TempDir()
	rec, installed, err := Unpack(archivePath, dest)
	if err != nil {
		t.Fatalf("Unpack() err: %v", err)
	}
	if rec.Package.Name != "demo" {
		t.Errorf("Unpack() recipe = %+v", rec)
	}

	sort.Strings(installed)
	if len(installed) != 2 {
		t.Fatalf("installed = %v, want 2 entries", installed)
	}

	content, err := os.ReadFile(filepath.Join(dest, "usr", "bin", "demo"))
	if err != nil {
		t.Fatalf("read installed file: %v", err)
	}
	if string(content) != "#!/bin/sh\necho hi\n" {
		t.Errorf("installed file content = %q", content)
	}

	fi, err := os.Lstat(filepath.Join(dest, "usr", "bin", "demo"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0755 {
		t.Errorf("installed file mode = %v, want 0755", fi.Mode().Perm())
	}

	target, err := os.Readlink(filepath.Join(dest, "usr", "bin", "demo-link"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "demo" {
		t.Errorf("symlink target = %q, want demo", target)
	}
}

// writeRawArchive builds a package.cfg + data.tar.gz outer tar directly,
// bypassing Create, so malformed/unsafe data tarballs can be exercised.
func writeRawArchive(t *testing.T, dest string, rec recipe.Recipe, dataEntries func(tw *tar.Writer)) {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "data.tar.gz")
	df, err := os.Create(dataPath)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(df)
	tw := tar.NewWriter(gz)
	dataEntries(tw)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	df.Close()

	out, err := os.Create(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	otw := tar.NewWriter(out)
	defer otw.Close()

	cfg := []byte(recipe.Render(rec))
	if err := otw.WriteHeader(&tar.Header{Name: "package.cfg", Mode: 0644, Size: int64(len(cfg)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := otw.Write(cfg); err != nil {
		t.Fatal(err)
	}

	dataBytes, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := otw.WriteHeader(&tar.Header{Name: "data.tar.gz", Mode: 0644, Size: int64(len(dataBytes)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := otw.Write(dataBytes); err != nil {
		t.Fatal(err)
	}
}

func TestUnpackPathTraversal(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.nxpkg")
	writeRawArchive(t, archivePath, demoRecipe(), func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{Name: "../../etc/passwd", Typeflag: tar.TypeReg, Size: 0, Mode: 0644})
	})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if !errkind.Is(err, errkind.ArchivePathUnsafe) {
		t.Fatalf("Unpack() err = %v, want ArchivePathUnsafe", err)
	}
}

func TestUnpackSymlinkParentTraversal(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.nxpkg")
	writeRawArchive(t, archivePath, demoRecipe(), func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{Name: "victim", Typeflag: tar.TypeSymlink, Linkname: "etc"})
		content := []byte("root:x:0:0\n")
		tw.WriteHeader(&tar.Header{Name: "victim/passwd", Typeflag: tar.TypeReg, Size: int64(len(content)), Mode: 0644})
		tw.Write(content)
	})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if !errkind.Is(err, errkind.ArchivePathUnsafe) {
		t.Fatalf("Unpack() err = %v, want ArchivePathUnsafe", err)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "etc", "passwd")); statErr == nil {
		t.Error("etc/passwd was materialized, traversal not prevented")
	}
}

func TestUnpackAbsoluteSymlinkTarget(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.nxpkg")
	writeRawArchive(t, archivePath, demoRecipe(), func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{Name: "victim", Typeflag: tar.TypeSymlink, Linkname: "/"})
	})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if !errkind.Is(err, errkind.ArchivePathUnsafe) {
		t.Fatalf("Unpack() err = %v, want ArchivePathUnsafe", err)
	}
}

func TestUnpackDirOverFileRejected(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.nxpkg")
	writeRawArchive(t, archivePath, demoRecipe(), func(tw *tar.Writer) {
		content := []byte("x")
		tw.WriteHeader(&tar.Header{Name: "thing", Typeflag: tar.TypeReg, Size: int64(len(content)), Mode: 0644})
		tw.Write(content)
		tw.WriteHeader(&tar.Header{Name: "thing/sub", Typeflag: tar.TypeDir, Mode: 0755})
	})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestUnpackArchMismatch(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "mismatch.nxpkg")
	rec := demoRecipe()
	rec.Package.Architectures = []string{"bogus_arch_never_matches"}
	writeRawArchive(t, archivePath, rec, func(tw *tar.Writer) {})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if !errkind.Is(err, errkind.ArchUnsupported) {
		t.Fatalf("Unpack() err = %v, want ArchUnsupported", err)
	}
}

func TestUnpackRejectsHardlink(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "evil.nxpkg")
	writeRawArchive(t, archivePath, demoRecipe(), func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeLink, Linkname: "other"})
	})

	dest := t.TempDir()
	_, _, err := Unpack(archivePath, dest)
	if !errkind.Is(err, errkind.ArchiveMalformed) {
		t.Fatalf("Unpack() err = %v, want ArchiveMalformed", err)
	}
}
