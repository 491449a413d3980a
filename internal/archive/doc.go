// Package archive reads and writes the two-layer .nxpkg container: an outer
// tar (optionally gzip-wrapped) holding exactly package.cfg followed by
// data.tar.gz, the gzip of a tar of a staging tree.
//
// Unpack enforces the safety rules of spec.md §4.1: path sanitization, an
// entry-type whitelist, symlink-target validation, symlink-parent-traversal
// prevention, and a ban on type coercion at the destination. The original
// implementation's extractor (original_source/src/compress.rs) predates
// these defenses; this package supersedes it rather than ports it.
package archive
