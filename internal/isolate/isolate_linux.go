//go:build linux

package isolate

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// runChild performs the sandboxed exec sequence in-process. It never
// returns: every path either calls unix.Exec (replacing the process image)
// or os.Exit with one of the Exit* codes on failure. Every step between
// here and the final exec must stay async-signal-safe-equivalent: no
// goroutines, no allocation-heavy error wrapping, nothing that could
// observe half-initialized runtime state in a re-exec'd single-goroutine
// process.
func runChild(opts Options) {
	if err := unix.Unshare(unix.CLONE_NEWNS | unix.CLONE_NEWPID | unix.CLONE_NEWUTS); err != nil {
		os.Exit(ExitUnshareFailed)
	}

	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		os.Exit(ExitPrivatePropFailed)
	}

	bindMountBestEffort(filepath.Join(opts.SandboxRoot, "dev"), "/dev", true)
	bindMountBestEffort(filepath.Join(opts.SandboxRoot, "sys"), "/sys", false)

	procTarget := filepath.Join(opts.SandboxRoot, "proc")
	if err := unix.Mount("proc", procTarget, "proc", unix.MS_NODEV|unix.MS_NOEXEC|unix.MS_NOSUID, ""); err != nil {
		os.Exit(ExitMountProcFailed)
	}

	if err := unix.Chroot(opts.SandboxRoot); err != nil {
		os.Exit(ExitChrootFailed)
	}
	if err := unix.Chdir("/"); err != nil {
		os.Exit(ExitChdirRootFailed)
	}

	if err := unix.Setgid(65534); err != nil {
		os.Exit(ExitSetgidFailed)
	}
	if err := unix.Setuid(65534); err != nil {
		os.Exit(ExitSetuidFailed)
	}

	if opts.Cwd != "" {
		if !filepath.IsAbs(opts.Cwd) {
			os.Exit(ExitNonAbsoluteCwd)
		}
		if err := unix.Chdir(opts.Cwd); err != nil {
			os.Exit(ExitCwdChdirFailed)
		}
	}

	resolved := resolveCommandPath(opts.Command)
	argv := append([]string{resolved}, opts.Args...)
	if err := unix.Exec(resolved, argv, os.Environ()); err != nil {
		os.Exit(ExitExecFailed)
	}
}

// resolveCommandPath decides the path unix.Exec should use inside the
// chroot: a command containing a slash is used verbatim (relative to the
// new root, since chdir "/" already ran); a bare name is probed against
// /usr/bin and /bin in that order, falling back to the bare name itself so
// the kernel's own ENOENT surfaces through Exec rather than being masked
// here.
func resolveCommandPath(command string) string {
	if strings.Contains(command, "/") {
		return command
	}
	for _, dir := range []string{"/usr/bin", "/bin"} {
		candidate := filepath.Join(dir, command)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return command
}

// bindMountBestEffort bind-mounts src onto dest and, on success, attempts a
// remount adding nosuid and noexec, plus read-only when writable is false.
// Every failure here is logged as a warning, not fatal: a sandbox missing
// /dev or /sys is still usable for builds that don't touch them, and
// chroot.rs's own prepare step treats these the same way.
func bindMountBestEffort(dest, src string, writable bool) {
	if err := unix.Mount(src, dest, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		slog.Warn("could not bind-mount into sandbox", "src", src, "dest", dest, "error", err)
		return
	}

	flags := uintptr(unix.MS_BIND | unix.MS_REMOUNT | unix.MS_NOSUID)
	if !writable {
		flags |= unix.MS_RDONLY
	}
	flags |= unix.MS_NOEXEC
	if err := unix.Mount("", dest, "", flags, ""); err != nil {
		slog.Warn("could not harden sandbox bind mount", "dest", dest, "error", err)
	}
}

// Cleanup lazily unmounts proc, dev, and sys under root (MNT_DETACH,
// best-effort — the sandbox's own mount namespace is normally torn down
// automatically when the isolated child exits, so these are a safety net
// for a child that died before reaching its own cleanup path) and then
// removes root entirely.
func Cleanup(root string) error {
	for _, dir := range []string{"proc", "dev", "sys"} {
		target := filepath.Join(root, dir)
		if err := unix.Unmount(target, unix.MNT_DETACH); err != nil && err != unix.EINVAL {
			slog.Warn("could not unmount sandbox path during cleanup", "path", target, "error", err)
		}
	}
	return os.RemoveAll(root)
}
