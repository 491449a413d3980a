// Package arch normalizes architecture tokens and matches them against the
// alias groups spec.md §4.2/§6 defines, used both for index asset
// resolution and for validating a recipe's declared architectures against
// the host.
package arch
