package engine

import (
	"time"

	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/service/actuation"
	"github.com/oshokin/datalogger/internal/service/alarm"
	"github.com/oshokin/datalogger/internal/service/session"
)

// Frame is the context of one tick, passed through every stage.
type Frame struct {
	// Now is the clock reading of the tick.
	Now time.Time
	// Controls are the operator settings read from the panel.
	Controls measurement.Controls
	// Snapshot is the latest sensor snapshot.
	Snapshot measurement.Snapshot
	// Results holds the outcome of each session tick.
	Results map[measurement.Domain]session.TickResult
	// Signals are the alarm states after evaluation.
	Signals alarm.Signals
	// Decision is the arbitrated output state.
	Decision actuation.Decision
	// SourceErr is set when no snapshot could be read; Snapshot then holds the last good one.
	SourceErr error
}

// Status is the published view of the last completed tick.
type Status struct {
	// Time is the clock reading of the tick.
	Time time.Time
	// Ticks is the number of completed ticks.
	Ticks uint64
	// Snapshot is the latest sensor snapshot.
	Snapshot measurement.Snapshot
	// Sessions holds one entry per loggable domain, in domain order.
	Sessions []session.Status
	// Signals are the alarm states.
	Signals alarm.Signals
	// Decision is the arbitrated output state.
	Decision actuation.Decision
	// ControlsError lists the panel fields that could not be read.
	ControlsError string
	// SourceError is the last sensor failure.
	SourceError string
	// ActuatorError is the last output failure.
	ActuatorError string
}

// Session returns the status of one domain's session.
func (s *Status) Session(d measurement.Domain) (session.Status, bool) {
	for _, st := range s.Sessions {
		if st.Domain == d {
			return st, true
		}
	}

	return session.Status{}, false
}
