// Package daemon runs the data logger process: it loads settings, builds the
// sensor source, the actuator and the operator panel, runs the poll loop and
// serves the status API until the context is canceled.
package daemon
