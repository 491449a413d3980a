// Package buildsys detects which build system a source tree uses and
// compiles the ordered list of configure/build/install commands needed to
// drive it.
//
// A [Kind] is a closed, tagged variant rather than an interface hierarchy:
// detection walks the source tree for a fixed set of signature files,
// breaks ties by kind priority and depth, and a single function per phase
// (configure, build, install) maps a Kind and a [Profile] onto commands.
// Grounded on internal/build's stage/step separation, generalized from
// "container stage steps" to "host source-tree build phases".
package buildsys
