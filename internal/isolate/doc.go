// Package isolate runs a command inside a freshly namespaced, chrooted,
// privilege-dropped child process.
//
// Run requires the caller to be effective UID 0. The child unshares mount,
// PID, and UTS namespaces, makes mount propagation private, bind-mounts
// /dev and /sys, mounts /proc, chroots, drops to uid/gid 65534 ("nobody"),
// and execve(2)s the target command. No work runs between a raw fork and
// exec in the calling process: Run re-execs the current binary as a helper
// child (detected by MaybeRunChild), and that fresh process performs the
// namespace, mount, chroot and privilege-drop steps before its own execve.
package isolate
