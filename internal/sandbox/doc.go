// Package sandbox prepares a minimal, self-contained chroot root on the
// host: directory scaffolding, a copied resolv.conf, and a best-effort
// toolchain closure (a fixed set of build binaries plus their transitive
// shared-library dependencies, discovered via PATH and the host's
// ldd-style dependency listing).
//
// Grounded on original_source/src/buildins/chroot.rs's prepare/
// copy_binary_with_deps, extended with the sys and tmp directories and the
// env binary that spec.md adds to the original's lists.
package sandbox
