// Package session implements the per-domain monitoring state machine.
//
// A Session is Idle until started. While Running it seeds its channels on the
// first tick, appends one point per quantity every sample interval at
// x = elapsed minutes, spills full channels to their record files and stops
// itself once the elapsed time passes the duration limit. Stopping drains
// every buffered point, so nothing logged in memory is lost.
package session
