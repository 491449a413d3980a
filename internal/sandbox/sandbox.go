package sandbox

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// Subdirectories created under the sandbox root. tmp gets sticky
// world-writable permissions (01777); the rest get the default directory
// mode.
var scaffoldDirs = []string{"bin", "usr/bin", "lib", "lib64", "proc", "dev", "sys", "etc", "build", "tmp"}

// Toolchain binaries the builder attempts to resolve and copy into the
// sandbox, one best-effort at a time. This is the original's list from
// chroot.rs plus "env", which spec.md adds.
var toolchainBinaries = []string{
	"bash", "sh", "env", "make", "gcc", "g++", "cargo", "meson",
	"ninja", "cmake", "git", "scons", "python", "ld",
}

// Prepare creates root and materializes a best-effort build runtime inside
// it: the fixed directory scaffold, a copy of /etc/resolv.conf, and the
// toolchain closure of every binary in toolchainBinaries that can be
// located on the host PATH. Failures to resolve any one binary are logged
// and preparation continues; the result is usable, not complete.
func Prepare(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return errkind.Wrap(errkind.SandboxPrepareFailed, "create sandbox root", err)
	}

	for _, dir := range scaffoldDirs {
		mode := os.FileMode(0755)
		if dir == "tmp" {
			mode = 0o777 | os.ModeSticky
		}
		if err := os.MkdirAll(filepath.Join(root, dir), mode); err != nil {
			return errkind.Wrap(errkind.SandboxPrepareFailed, "create sandbox directory "+dir, err)
		}
		if dir == "tmp" {
			// MkdirAll doesn't apply the sticky bit if the directory already
			// existed with a different mode; force it explicitly.
			if err := os.Chmod(filepath.Join(root, dir), mode); err != nil {
				return errkind.Wrap(errkind.SandboxPrepareFailed, "set sticky bit on tmp", err)
			}
		}
	}

	if err := copyResolvConf(root); err != nil {
		slog.Warn("could not copy resolv.conf into sandbox", "error", err)
	}

	copied := make(map[string]bool)
	for _, bin := range toolchainBinaries {
		if err := copyBinaryWithDeps(root, bin, copied); err != nil {
			slog.Warn("could not resolve toolchain binary", "binary", bin, "error", err)
		}
	}

	return nil
}

// Cleanup removes root entirely. Unmounting any live mounts under root is
// the isolation executor's responsibility (internal/isolate.Cleanup); this
// function assumes no mounts remain.
func Cleanup(root string) error {
	if err := os.RemoveAll(root); err != nil {
		return errkind.Wrap(errkind.SandboxPrepareFailed, "remove sandbox root", err)
	}
	return nil
}

func copyResolvConf(root string) error {
	src := "/etc/resolv.conf"
	if _, err := os.Stat(src); err != nil {
		return err
	}
	return copyFile(src, filepath.Join(root, "etc", "resolv.conf"))
}

// copyBinaryWithDeps locates bin on PATH, discovers its dynamic library
// closure via ldd, and copies every unique file (the binary plus its
// libraries) into root at the same absolute path. copied tracks source
// paths already materialized so repeated dependencies aren't re-copied.
func copyBinaryWithDeps(root, bin string, copied map[string]bool) error {
	binPath, err := exec.LookPath(bin)
	if err != nil {
		return errkind.Wrap(errkind.SandboxPrepareFailed, bin+" not found in PATH", err)
	}

	files := []string{binPath}
	files = append(files, lddClosure(binPath)...)

	for _, f := range files {
		if copied[f] {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		dest := filepath.Join(root, strings.TrimPrefix(f, "/"))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := copyFile(f, dest); err != nil {
			return err
		}
		copied[f] = true
	}

	return nil
}

// lddClosure runs the host's ldd against binPath and parses its output for
// the absolute paths of shared-library dependencies. Two line shapes are
// recognized: "libfoo.so.1 => /path/to/libfoo.so.1 (0x...)" and bare
// absolute-path lines such as the dynamic linker itself
// ("/lib64/ld-linux-x86-64.so.2 (0x...)"). A failing or missing ldd yields
// an empty closure rather than an error; the caller's copy of the binary
// itself still proceeds.
func lddClosure(binPath string) []string {
	out, err := exec.Command("ldd", binPath).Output()
	if err != nil {
		return nil
	}
	return lddClosureFromText(string(out))
}

// lddClosureFromText parses the textual output of ldd, recognizing
// "name => /path (0x...)" lines and bare absolute-path lines (the dynamic
// linker itself).
func lddClosureFromText(output string) []string {
	var libs []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		switch {
		case strings.Contains(line, "=>") && len(fields) >= 3:
			libs = append(libs, fields[2])
		case !strings.Contains(line, "=>") && len(fields) >= 1 && strings.HasPrefix(fields[0], "/"):
			libs = append(libs, fields[0])
		}
	}
	return libs
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
