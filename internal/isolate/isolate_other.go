//go:build !linux

package isolate

import "os"

// runChild is unreachable on non-Linux platforms: Run refuses to start the
// child before this point because of the runtime.GOOS check above it.
func runChild(opts Options) {
	os.Exit(ExitUnshareFailed)
}

// Cleanup is unavailable outside Linux; there are no sandbox mounts to
// unmount.
func Cleanup(root string) error {
	return os.RemoveAll(root)
}
