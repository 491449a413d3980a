// Parses flags and configures logging for the nxpkg CLI.
//
// The CLI accepts the following persistent flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger's level is reconfigured to reflect the final verbosity before
// a subcommand runs.
package cli
