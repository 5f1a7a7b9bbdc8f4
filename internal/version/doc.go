// Package version exposes build metadata for the cyber-dojo CLI.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. The `version` subcommand also reports the container runtime's client version.
package version
