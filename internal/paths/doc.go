// Provides platform-appropriate paths for nxpkg's cache, configuration,
// and metadata store.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. "nxpkg" is used as the subdirectory under each base
// path.
package paths
