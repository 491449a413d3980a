// Package pipeline orchestrates a single build-and-package run end to end:
// clone or stage a source tree, prepare and populate a sandbox, move the
// source in, detect and run its build system under isolation, package the
// install output, and clean up the sandbox unconditionally.
//
// Grounded on internal/build's stage-by-stage Run/Result shape, generalized
// from "container stages" to a fixed linear state machine over a single
// source tree.
package pipeline
