// Package internal holds process-wide identity and runtime flags shared by
// every nxpkg package: build-time version metadata and the quiet/debug/
// verbose switches threaded through logging setup.
package internal

// Name used for directory naming, logging groups, and CLI identification.
const Name = "nxpkg"
