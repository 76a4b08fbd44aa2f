// Package version exposes build metadata for the datalogger binaries.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// The daemon logs them at startup and both binaries print them from a
// `version` subcommand.
package version
