// Package recipe parses and renders package.cfg, the INI-like recipe format
// embedded in every .nxpkg archive.
//
// The grammar is deliberately small: sections [package], [build], and
// [install], comment lines beginning with '#' or ';', and key = value pairs
// with list-valued fields joined by ", " (or "; " for build commands). No
// third-party INI library is used; the parser mirrors the original
// implementation's own zero-dependency approach for this exact format.
package recipe
