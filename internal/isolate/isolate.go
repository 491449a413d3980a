package isolate

import (
	"encoding/json"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/nxpkg/nxpkg/internal/errkind"
)

// Exit codes used by the child process for each fatal failure stage. A
// child that dies before any of these points (e.g. killed by signal) is
// reported to the parent as the bare signal number; spec deliberately
// preserves this ambiguity rather than inventing a richer encoding.
const (
	ExitUnshareFailed       = 101
	ExitMountProcFailed     = 102
	ExitChrootFailed        = 103
	ExitChdirRootFailed     = 104
	ExitExecFailed          = 105
	ExitPrivatePropFailed   = 106
	ExitSetgidFailed        = 108
	ExitSetuidFailed        = 109
	ExitNonAbsoluteCwd      = 110
	ExitCwdChdirFailed      = 111
)

// envChildMarker, set in the child's environment, signals that this
// process invocation should run the isolate child entrypoint rather than
// the normal CLI, and carries the JSON-encoded [Options] for the command
// to run. The thin re-exec'd helper is the idiomatic Go substitute for the
// async-signal-safety constraints of doing namespace/mount/chroot work
// directly between a raw fork and exec: see spec.md §9's note on using "a
// thin helper process spawned with a pre-built argument vector".
const envChildMarker = "NXPKG_ISOLATE_CHILD"

// Options describes the command to run inside the sandbox.
type Options struct {
	SandboxRoot string   // absolute path to the prepared sandbox root
	Command     string   // command to execute, resolved inside the chroot
	Args        []string // arguments, excluding argv[0]
	Cwd         string   // optional; must be absolute if set
}

// Result is the outcome of a completed Run.
type Result struct {
	// ExitCode is the child's process exit code, or — if the child died
	// by signal — the bare signal number. Callers cannot distinguish the
	// two cases; this mirrors the ambiguity spec.md §9 documents in the
	// original implementation.
	ExitCode int
}

// Run forks a thin re-exec of the current binary, which performs (in
// order) namespace unshare, private mount propagation, /dev and /sys bind
// mounts, a /proc mount, chroot, privilege drop to uid/gid 65534, and
// execve of opts.Command. The caller must be effective UID 0.
func Run(opts Options) (Result, error) {
	if runtime.GOOS != "linux" {
		return Result{}, errkind.New(errkind.PrivilegeRequired, "isolation executor requires linux")
	}
	if os.Geteuid() != 0 {
		return Result{}, errkind.New(errkind.PrivilegeRequired, "isolation executor requires effective uid 0")
	}

	self, err := os.Executable()
	if err != nil {
		return Result{}, errkind.Wrap(errkind.SandboxPrepareFailed, "resolve own executable path", err)
	}

	encoded, err := json.Marshal(opts)
	if err != nil {
		return Result{}, errkind.Wrap(errkind.SandboxPrepareFailed, "encode isolate options", err)
	}

	cmd := exec.Command(self)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), envChildMarker+"="+string(encoded))

	runErr := cmd.Run()
	if runErr == nil {
		return Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if !asExitError(runErr, &exitErr) {
		return Result{}, errkind.Wrap(errkind.ExecFailed, "run isolated child", runErr)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return Result{ExitCode: int(status.Signal())}, nil
	}
	return Result{ExitCode: exitErr.ExitCode()}, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// MaybeRunChild checks whether this process invocation was re-exec'd by
// [Run] to act as the isolate child. If so, it performs the sandboxed exec
// sequence and never returns (the process either becomes opts.Command via
// execve, or calls os.Exit with one of the Exit* codes). If this process
// was not invoked as an isolate child, it returns immediately so normal CLI
// dispatch can proceed.
func MaybeRunChild() {
	encoded, ok := os.LookupEnv(envChildMarker)
	if !ok {
		return
	}

	var opts Options
	if err := json.Unmarshal([]byte(encoded), &opts); err != nil {
		os.Exit(ExitExecFailed)
	}

	runChild(opts)
}
