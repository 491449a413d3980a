package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nxpkg/nxpkg/internal/arch"
	"github.com/nxpkg/nxpkg/internal/errkind"
	"github.com/nxpkg/nxpkg/internal/recipe"
)

const (
	recipeEntryName = "package.cfg"
	dataEntryName   = "data.tar.gz"

	recipeEntryMode = 0644
	dataEntryMode   = 0644
)

// gzipMagic is the two-byte magic at offset 0 of a gzip stream, used to
// detect whether the outer container is gzip-wrapped.
var gzipMagic = [2]byte{0x1f, 0x8b}

// Create walks stagingDir without following symlinks and writes a
// two-layer archive to destPath: package.cfg rendered from rec, followed by
// data.tar.gz (the gzip of a tar of stagingDir's contents), in that order.
// The outer tar is written uncompressed.
func Create(stagingDir string, rec recipe.Recipe, destPath string) error {
	dataPath, err := writeDataTarGz(stagingDir)
	if err != nil {
		return err
	}
	defer os.Remove(dataPath)

	out, err := os.Create(destPath)
	if err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "create archive file", err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	if err := writeTarBytes(tw, recipeEntryName, recipeEntryMode, []byte(recipe.Render(rec))); err != nil {
		return err
	}
	if err := writeTarFile(tw, dataEntryName, dataEntryMode, dataPath); err != nil {
		return err
	}
	return nil
}

// ReadRecipeOnly seeks to offset 0, sniffs the gzip magic, iterates outer
// entries until package.cfg is found, parses it, and returns without
// touching data.tar.gz or installing anything.
func ReadRecipeOnly(archivePath string) (recipe.Recipe, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return recipe.Recipe{}, errkind.Wrap(errkind.ArchiveMalformed, "open archive", err)
	}
	defer f.Close()

	tr, err := outerTarReader(f)
	if err != nil {
		return recipe.Recipe{}, err
	}

	cfg, err := findRecipeEntry(tr)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.Parse(string(cfg))
}

// Unpack parses package.cfg, validates the recipe's declared architectures
// against the host, then streams data.tar.gz into destRoot applying the
// safety rules of spec.md §4.1. Returns the recipe and the absolute paths
// of every regular file and symlink materialized.
func Unpack(archivePath, destRoot string) (recipe.Recipe, []string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return recipe.Recipe{}, nil, errkind.Wrap(errkind.ArchiveMalformed, "open archive", err)
	}
	defer f.Close()

	tr, err := outerTarReader(f)
	if err != nil {
		return recipe.Recipe{}, nil, err
	}

	cfgBytes, err := findRecipeEntry(tr)
	if err != nil {
		return recipe.Recipe{}, nil, err
	}
	rec, err := recipe.Parse(string(cfgBytes))
	if err != nil {
		return recipe.Recipe{}, nil, err
	}
	if !arch.AnyMatchesHost(rec.Package.Architectures) {
		return recipe.Recipe{}, nil, errkind.New(errkind.ArchUnsupported,
			"recipe architectures "+strings.Join(rec.Package.Architectures, ",")+" do not match host "+arch.Host())
	}

	dataHdr, err := nextEntry(tr, dataEntryName)
	if err != nil {
		return recipe.Recipe{}, nil, err
	}
	_ = dataHdr

	gz, err := gzip.NewReader(tr)
	if err != nil {
		return recipe.Recipe{}, nil, errkind.Wrap(errkind.ArchiveMalformed, "data.tar.gz is not valid gzip", err)
	}
	defer gz.Close()

	installed, err := unpackDataTar(tar.NewReader(gz), destRoot)
	if err != nil {
		return recipe.Recipe{}, nil, err
	}

	return rec, installed, nil
}

// outerTarReader returns a *tar.Reader over f, transparently unwrapping a
// gzip layer if the two-byte magic is present at offset 0.
func outerTarReader(f *os.File) (*tar.Reader, error) {
	br := bufio.NewReader(f)
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errkind.Wrap(errkind.ArchiveMalformed, "read archive header", err)
	}

	var r io.Reader = br
	if len(peek) == 2 && peek[0] == gzipMagic[0] && peek[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errkind.Wrap(errkind.ArchiveMalformed, "outer container is not valid gzip", err)
		}
		r = gz
	}
	return tar.NewReader(r), nil
}

// findRecipeEntry advances tr to package.cfg (expected as the first entry)
// and returns its contents.
func findRecipeEntry(tr *tar.Reader) ([]byte, error) {
	hdr, err := nextEntry(tr, recipeEntryName)
	if err != nil {
		return nil, err
	}
	_ = hdr
	buf, err := io.ReadAll(tr)
	if err != nil {
		return nil, errkind.Wrap(errkind.ArchiveMalformed, "read package.cfg", err)
	}
	return buf, nil
}

// nextEntry advances tr to the next header and requires its name to match
// want.
func nextEntry(tr *tar.Reader, want string) (*tar.Header, error) {
	hdr, err := tr.Next()
	if err == io.EOF {
		return nil, errkind.New(errkind.ArchiveMalformed, "archive ended before finding "+want)
	}
	if err != nil {
		return nil, errkind.Wrap(errkind.ArchiveMalformed, "read tar header", err)
	}
	if hdr.Name != want {
		return nil, errkind.New(errkind.ArchiveMalformed, "expected entry "+want+", found "+hdr.Name)
	}
	return hdr, nil
}

func writeTarBytes(tw *tar.Writer, name string, mode int64, data []byte) error {
	hdr := &tar.Header{Name: name, Mode: mode, Size: int64(len(data)), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "write "+name+" header", err)
	}
	if _, err := tw.Write(data); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "write "+name+" contents", err)
	}
	return nil
}

func writeTarFile(tw *tar.Writer, name string, mode int64, srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "stat "+name, err)
	}
	hdr := &tar.Header{Name: name, Mode: mode, Size: info.Size(), Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "write "+name+" header", err)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "open "+name, err)
	}
	defer src.Close()
	if _, err := io.Copy(tw, src); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "write "+name+" contents", err)
	}
	return nil
}

// writeDataTarGz walks stagingDir without following symlinks and writes a
// gzip of a tar of its contents to a temporary file, returning its path.
func writeDataTarGz(stagingDir string) (string, error) {
	tmp, err := os.CreateTemp("", "nxpkg-data-*.tar.gz")
	if err != nil {
		return "", errkind.Wrap(errkind.ArchiveMalformed, "create temp data tarball", err)
	}
	defer tmp.Close()

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(stagingDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == stagingDir {
			return nil
		}
		rel, err := filepath.Rel(stagingDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return tw.WriteHeader(&tar.Header{
				Name:     rel,
				Typeflag: tar.TypeSymlink,
				Linkname: target,
				Mode:     int64(info.Mode().Perm()),
			})
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Name:     rel + "/",
				Typeflag: tar.TypeDir,
				Mode:     int64(info.Mode().Perm()),
			})
		case info.Mode().IsRegular():
			if err := tw.WriteHeader(&tar.Header{
				Name:     rel,
				Typeflag: tar.TypeReg,
				Mode:     int64(info.Mode().Perm()),
				Size:     info.Size(),
			}); err != nil {
				return err
			}
			src, err := os.Open(p)
			if err != nil {
				return err
			}
			defer src.Close()
			_, err = io.Copy(tw, src)
			return err
		default:
			// Sockets, devices, FIFOs: not meaningful payload for a staging
			// tree, skipped rather than rejected outright.
			return nil
		}
	})
	if walkErr != nil {
		tw.Close()
		gz.Close()
		os.Remove(tmp.Name())
		return "", errkind.Wrap(errkind.ArchiveMalformed, "walk staging tree", walkErr)
	}

	if err := tw.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errkind.Wrap(errkind.ArchiveMalformed, "finalize data tar", err)
	}
	if err := gz.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errkind.Wrap(errkind.ArchiveMalformed, "finalize data gzip", err)
	}

	return tmp.Name(), nil
}

// windowsPrefix matches a leading drive letter such as "C:", rejected per
// spec.md's path-sanitization rule. It does not match UNC-style paths;
// sanitizeEntryPath rejects those through its separate backslash check.
var windowsPrefix = regexp.MustCompile(`^[A-Za-z]:`)

// sanitizeEntryPath validates an archive member path against spec.md's
// path-sanitization rule and returns its cleaned, slash-separated relative
// form.
func sanitizeEntryPath(name string) (string, error) {
	if name == "" {
		return "", errkind.New(errkind.ArchivePathUnsafe, "empty entry path")
	}
	if strings.Contains(name, "\\") || windowsPrefix.MatchString(name) {
		return "", errkind.New(errkind.ArchivePathUnsafe, "windows-style path: "+name)
	}
	if path.IsAbs(name) {
		return "", errkind.New(errkind.ArchivePathUnsafe, "absolute path: "+name)
	}
	for _, comp := range strings.Split(name, "/") {
		if comp == ".." {
			return "", errkind.New(errkind.ArchivePathUnsafe, "path traversal: "+name)
		}
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", errkind.New(errkind.ArchivePathUnsafe, "path traversal: "+name)
	}
	return clean, nil
}

// sanitizeSymlinkTarget validates a symlink's link target per rule 3.
func sanitizeSymlinkTarget(target string) error {
	if target == "" {
		return errkind.New(errkind.ArchivePathUnsafe, "empty symlink target")
	}
	if path.IsAbs(target) || windowsPrefix.MatchString(target) {
		return errkind.New(errkind.ArchivePathUnsafe, "absolute symlink target: "+target)
	}
	for _, comp := range strings.Split(target, "/") {
		if comp == ".." {
			return errkind.New(errkind.ArchivePathUnsafe, "symlink target escapes tree: "+target)
		}
	}
	return nil
}

// unpackState tracks, across a single unpack session, which destination
// paths (relative to destRoot, slash-separated) were created as symlinks —
// needed to detect symlink-parent-traversal attacks per rule 4.
type unpackState struct {
	destRoot       string
	trustExisting  bool // destRoot == "/": trust pre-existing on-disk parents
	sessionSymlink map[string]bool
}

func unpackDataTar(tr *tar.Reader, destRoot string) ([]string, error) {
	state := &unpackState{
		destRoot:       destRoot,
		trustExisting:  filepath.Clean(destRoot) == string(filepath.Separator),
		sessionSymlink: make(map[string]bool),
	}

	var installed []string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return installed, errkind.Wrap(errkind.ArchiveMalformed, "read data tar header", err)
		}

		switch hdr.Typeflag {
		case tar.TypeXHeader, tar.TypeXGlobalHeader, tar.TypeGNULongName, tar.TypeGNULongLink:
			continue // pax/gnu long-name headers: transparently merged by archive/tar already
		case tar.TypeDir, tar.TypeReg, tar.TypeRegA, tar.TypeCont, tar.TypeGNUSparse, tar.TypeSymlink:
			// whitelisted
		default:
			return installed, errkind.New(errkind.ArchiveMalformed, "rejected entry type for "+hdr.Name)
		}

		rel, err := sanitizeEntryPath(hdr.Name)
		if err != nil {
			return installed, err
		}
		if hdr.Typeflag == tar.TypeSymlink {
			if err := sanitizeSymlinkTarget(hdr.Linkname); err != nil {
				return installed, err
			}
		}

		destPath := filepath.Join(destRoot, filepath.FromSlash(rel))

		if err := checkParentsSafe(state, rel); err != nil {
			return installed, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := materializeDir(destPath, hdr); err != nil {
				return installed, err
			}
		case tar.TypeSymlink:
			if err := materializeSymlink(destPath, hdr); err != nil {
				return installed, err
			}
			state.sessionSymlink[rel] = true
			installed = append(installed, destPath)
		default:
			if err := materializeFile(destPath, hdr, tr); err != nil {
				return installed, err
			}
			installed = append(installed, destPath)
		}
	}

	return installed, nil
}

// checkParentsSafe walks every parent directory of rel (relative,
// slash-separated) and rejects the entry if any parent is a symlink,
// whether created earlier in this session or (when destRoot isn't "/")
// already present on disk.
func checkParentsSafe(state *unpackState, rel string) error {
	dir := path.Dir(rel)
	if dir == "." {
		return nil
	}
	parts := strings.Split(dir, "/")
	acc := ""
	for _, part := range parts {
		if acc == "" {
			acc = part
		} else {
			acc = acc + "/" + part
		}
		if state.sessionSymlink[acc] {
			return errkind.New(errkind.ArchivePathUnsafe, "parent path was created as a symlink in this archive: "+acc)
		}
		if !state.trustExisting {
			full := filepath.Join(state.destRoot, filepath.FromSlash(acc))
			if fi, err := os.Lstat(full); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				return errkind.New(errkind.ArchivePathUnsafe, "parent path is a pre-existing symlink: "+acc)
			}
		}
	}
	return nil
}

func materializeDir(destPath string, hdr *tar.Header) error {
	if fi, err := os.Lstat(destPath); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return errkind.New(errkind.ArchivePathUnsafe, "refusing to create directory over existing symlink: "+hdr.Name)
		}
		if !fi.IsDir() {
			return errkind.New(errkind.ArchivePathUnsafe, "refusing to create directory over existing file: "+hdr.Name)
		}
		return os.Chmod(destPath, os.FileMode(hdr.Mode&0777))
	}
	return os.MkdirAll(destPath, os.FileMode(hdr.Mode&0777)|0700)
}

func materializeSymlink(destPath string, hdr *tar.Header) error {
	if err := clearForWrite(destPath, hdr.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "create parent directory", err)
	}
	if err := os.Symlink(hdr.Linkname, destPath); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "create symlink "+hdr.Name, err)
	}
	return nil
}

func materializeFile(destPath string, hdr *tar.Header, r io.Reader) error {
	if err := clearForWrite(destPath, hdr.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "create parent directory", err)
	}
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0777))
	if err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "create file "+hdr.Name, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "write file "+hdr.Name, err)
	}
	return nil
}

// clearForWrite enforces rule 5 (no type coercion) for a file/symlink
// destination: refuses to overwrite an existing directory, but removes an
// existing regular file or symlink so the new entry can be written.
func clearForWrite(destPath, entryName string) error {
	fi, err := os.Lstat(destPath)
	if err != nil {
		return nil // nothing there, nothing to clear
	}
	if fi.IsDir() {
		return errkind.New(errkind.ArchivePathUnsafe, "refusing to overwrite directory with file/symlink: "+entryName)
	}
	if err := os.Remove(destPath); err != nil {
		return errkind.Wrap(errkind.ArchiveMalformed, "remove existing entry at "+entryName, err)
	}
	return nil
}
