// Package store persists package recipes, their installed-file manifests,
// and build profiles in a bbolt key-value database keyed by package name.
//
// Deletion follows original_source/src/db/mod.rs's rem_package_metadata
// exactly: installed files are removed best-effort (failures logged, not
// fatal), then now-empty parent directories are pruned deepest-first, and
// only then is the store entry itself removed.
package store
