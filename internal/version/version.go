// Package version holds the build-time version string shared by all three
// bscan binaries.
package version

// Version is the current release of bscan. Overridden at build time with
// -ldflags "-X github.com/welchbj/bscan/internal/version.Version=...".
var Version = "0.1.0-dev"
