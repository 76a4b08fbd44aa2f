// Package logger keeps one zap console logger for the process and carries
// named children through contexts.
//
// The poll loop, the sessions and the gRPC transport all take a context and
// extract the logger from it, so every record carries the component name and,
// where relevant, the monitored domain and session run ID.
package logger
