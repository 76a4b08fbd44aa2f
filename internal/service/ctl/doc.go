// Package ctl implements the operator commands of datalogger-ctl.
//
// Remote commands talk to the daemon over gRPC; history and ports work on the
// local machine only.
package ctl
