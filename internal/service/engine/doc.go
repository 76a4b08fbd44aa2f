// Package engine drives the logger's cooperative poll loop.
//
// One goroutine owns every session, the alarm evaluator and the output
// arbiter. Each tick it applies queued operator commands, reads the panel
// controls and the latest sensor snapshot, advances the sessions, evaluates
// alarms, arbitrates outputs and publishes a read-only Status for the API.
package engine
