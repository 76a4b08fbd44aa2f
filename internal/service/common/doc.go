// Package common holds helpers shared by the daemon and the control CLI.
//
// It provides a gRPC client for the logger service with call timeouts, the
// operator identity attached to every call, and a guard that refuses to start
// a second daemon owning the same record files.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
