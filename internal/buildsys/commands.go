package buildsys

import (
	"os"
	"path/filepath"
)

// Profile parameterizes command generation for a detected build system.
//
// SourceDir, BuildDir, and DestDir are paths as the build tool itself will
// see them (chroot-relative, once the caller has entered a sandbox);
// HostSourceDir is the same source directory as it exists on the real
// filesystem, for checks (os.Stat, and similar) that run before the
// sandboxed command does and so can't use the chroot-relative form.
type Profile struct {
	SourceDir     string // S: directory containing the build-system signature file
	BuildDir      string // B: out-of-tree build directory (Meson, CMake)
	DestDir       string // D: install staging root
	HostSourceDir string // S as seen from outside the sandbox, for pre-flight checks

	ConfigureArgs []string
	BuildArgs     []string
	InstallArgs   []string
}

// Command is a single command to run as part of a build phase.
type Command struct {
	Dir  string // working directory to run Argv in
	Env  []string
	Argv []string // argv[0] is the program name
}

// ConfigureCommands returns the ordered configure-phase commands for kind,
// or nil if the kind has no separate configure phase (Cargo, SCons) or the
// phase is conditional and not applicable (Make without a configure
// script).
func ConfigureCommands(kind Kind, p Profile) []Command {
	switch kind {
	case Meson:
		argv := append([]string{"meson", "setup", p.BuildDir, p.SourceDir, "--prefix=/usr"}, p.ConfigureArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case CMake:
		argv := append([]string{
			"cmake", "-S", p.SourceDir, "-B", p.BuildDir,
			"-DCMAKE_BUILD_TYPE=Release", "-DCMAKE_INSTALL_PREFIX=/usr",
		}, p.ConfigureArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case Make:
		hostSourceDir := p.HostSourceDir
		if hostSourceDir == "" {
			hostSourceDir = p.SourceDir
		}
		configureScript := filepath.Join(hostSourceDir, "configure")
		if _, err := os.Stat(configureScript); err != nil {
			return nil
		}
		argv := append([]string{"./configure", "--prefix=/usr"}, p.ConfigureArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	default:
		return nil
	}
}

// BuildCommands returns the ordered build-phase commands for kind.
func BuildCommands(kind Kind, p Profile) []Command {
	switch kind {
	case Cargo:
		argv := append([]string{"cargo", "build", "--release"}, p.BuildArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case Meson:
		argv := append([]string{"meson", "compile", "-C", p.BuildDir}, p.BuildArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case CMake:
		argv := []string{"cmake", "--build", p.BuildDir}
		if len(p.BuildArgs) > 0 {
			argv = append(argv, "--")
			argv = append(argv, p.BuildArgs...)
		}
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case SCons:
		argv := append([]string{"scons"}, p.BuildArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case Make:
		argv := append([]string{"make"}, p.BuildArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	default:
		return nil
	}
}

// InstallCommands returns the ordered install-phase commands for kind.
func InstallCommands(kind Kind, p Profile) []Command {
	switch kind {
	case Cargo:
		argv := append([]string{"cargo", "install", "--path", p.SourceDir, "--root", p.DestDir}, p.InstallArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case Meson:
		argv := append([]string{"meson", "install", "-C", p.BuildDir, "--destdir", p.DestDir}, p.InstallArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case CMake:
		argv := append([]string{"cmake", "--install", p.BuildDir, "--prefix", "/usr"}, p.InstallArgs...)
		return []Command{{
			Dir:  p.SourceDir,
			Env:  []string{"DESTDIR=" + p.DestDir},
			Argv: argv,
		}}

	case SCons:
		argv := append([]string{"scons", "install", "DESTDIR=" + p.DestDir, "PREFIX=/usr"}, p.InstallArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	case Make:
		argv := append([]string{"make", "install", "DESTDIR=" + p.DestDir, "PREFIX=/usr"}, p.InstallArgs...)
		return []Command{{Dir: p.SourceDir, Argv: argv}}

	default:
		return nil
	}
}
