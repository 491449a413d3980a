// Package cfg resolves the layered configuration surface: built-in
// defaults, the system config file, the user config file, and finally
// environment variables, each overriding the last. File contents use the
// same "[section]\nkey = value" grammar as internal/recipe, under one
// [nxpkg] section.
package cfg
