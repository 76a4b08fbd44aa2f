package alarm

import (
	"context"
	"time"

	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/logger"
)

// Signals is the tripped state of every alarm after a tick.
type Signals struct {
	// AD is the digital/analog input alarm.
	AD bool
	// IV is the current/voltage alarm.
	IV bool
	// Temp is the temperature/humidity alarm.
	Temp bool
	// Clock is the latched time-of-day alarm.
	Clock bool
}

// InputTripped reports whether any sensor-backed alarm is tripped.
func (s Signals) InputTripped() bool {
	return s.AD || s.IV || s.Temp
}

// Domain returns the tripped flag of one domain.
func (s Signals) Domain(d measurement.Domain) bool {
	switch d {
	case measurement.DomainAD:
		return s.AD
	case measurement.DomainIV:
		return s.IV
	case measurement.DomainTemp:
		return s.Temp
	case measurement.DomainClock:
		return s.Clock
	default:
		return false
	}
}

// Exceeded reports whether a live value passes one of the domain's limits.
//
//	AD:   count > Primary or analog voltage > Secondary
//	IV:   current > Primary or load voltage > Secondary
//	TEMP: probe or module temperature > Primary, or humidity > Secondary
func Exceeded(d measurement.Domain, s measurement.Snapshot, limits measurement.Thresholds) bool {
	switch d {
	case measurement.DomainAD:
		return s.DinCount > limits.Primary || s.AinVoltage > limits.Secondary
	case measurement.DomainIV:
		return s.CurrentMA > limits.Primary || s.LoadVoltage > limits.Secondary
	case measurement.DomainTemp:
		return s.ProbeTemp > limits.Primary || s.ModuleTemp > limits.Primary || s.ModuleHumidity > limits.Secondary
	default:
		return false
	}
}

// Evaluator holds the tripped flags between ticks.
type Evaluator struct {
	// signals is the state after the last evaluation.
	signals Signals
}

// NewEvaluator returns an evaluator with every alarm clear.
func NewEvaluator() *Evaluator {
	return new(Evaluator)
}

// Signals returns the state after the last evaluation.
func (e *Evaluator) Signals() Signals {
	return e.signals
}

// Evaluate recomputes one input alarm. A disabled alarm is always clear.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	d measurement.Domain,
	snapshot measurement.Snapshot,
	alarm measurement.InputAlarm,
) bool {
	tripped := alarm.Enabled && Exceeded(d, snapshot, alarm.Limits)

	previous := e.signals.Domain(d)
	if tripped != previous {
		logTransition(ctx, d, tripped, snapshot)
	}

	switch d {
	case measurement.DomainAD:
		e.signals.AD = tripped
	case measurement.DomainIV:
		e.signals.IV = tripped
	case measurement.DomainTemp:
		e.signals.Temp = tripped
	default:
		return false
	}

	return tripped
}

// EvaluateClock latches the clock alarm when armed and the strings match,
// and clears it only when disarmed.
func (e *Evaluator) EvaluateClock(ctx context.Context, live, at string, armed bool) bool {
	switch {
	case !armed:
		if e.signals.Clock {
			logger.InfoKV(ctx, "Clock alarm disarmed")
		}

		e.signals.Clock = false
	case !e.signals.Clock && at != "" && live == at:
		logger.WarnKV(ctx, "Clock alarm tripped", "at", at)

		e.signals.Clock = true
	}

	return e.signals.Clock
}

// EvaluateAll runs every alarm for one tick, independent of which domain is displayed.
func (e *Evaluator) EvaluateAll(ctx context.Context, snapshot measurement.Snapshot, controls *measurement.Controls) Signals {
	for _, d := range measurement.InputDomains() {
		e.Evaluate(ctx, d, snapshot, controls.Alarm(d))
	}

	e.EvaluateClock(ctx, snapshot.ClockString(), controls.Clock.At, controls.Clock.Armed)

	return e.signals
}

// EvaluateClockOnly runs the clock alarm for a tick without a sensor reading.
// Input alarms keep the state of the last successful reading.
func (e *Evaluator) EvaluateClockOnly(ctx context.Context, now time.Time, controls *measurement.Controls) Signals {
	live := measurement.Snapshot{Time: now}.ClockString()
	e.EvaluateClock(ctx, live, controls.Clock.At, controls.Clock.Armed)

	return e.signals
}

// logTransition records an input alarm edge with the values that caused it.
func logTransition(ctx context.Context, d measurement.Domain, tripped bool, s measurement.Snapshot) {
	if !tripped {
		logger.InfoKV(ctx, "Alarm cleared", "domain", d)

		return
	}

	logger.WarnKV(ctx, "Alarm tripped",
		"domain", d,
		"din_count", s.DinCount,
		"ain_voltage", s.AinVoltage,
		"current_ma", s.CurrentMA,
		"load_voltage", s.LoadVoltage,
		"probe_temp", s.ProbeTemp,
		"module_temp", s.ModuleTemp,
		"module_humidity", s.ModuleHumidity,
	)
}
