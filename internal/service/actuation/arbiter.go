package actuation

import (
	"context"
	"errors"

	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/hardware"
	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/service/alarm"
)

const (
	// maxDuty is the full-scale duty cycle in percent.
	maxDuty = 100.0

	// DefaultPwmChannel is the PWM channel of the digital output.
	DefaultPwmChannel = 0
)

// Source names which rule decided an output.
type Source string

// Output decision sources.
const (
	SourceManual Source = "manual"
	SourceMode   Source = "mode"
	SourceAlarm  Source = "alarm"
	SourceClock  Source = "clock"
	SourceHold   Source = "hold"
)

// Output is the resolved state of the digital output.
type Output struct {
	// Mode is Low, High, PWM or inverted PWM.
	Mode measurement.OutputMode
	// FrequencyHz is the PWM frequency, zero for fixed levels.
	FrequencyHz int
	// Duty is the duty cycle written to the channel, inversion already applied.
	Duty float64
}

// Decision is the result of one arbitration.
type Decision struct {
	// Relay is the relay state.
	Relay bool
	// RelaySource names the rule that decided the relay.
	RelaySource Source
	// DigitalOut is the digital output state.
	DigitalOut Output
	// DigitalSource names the rule that decided the digital output.
	DigitalSource Source
}

// Options configure the arbiter.
type Options struct {
	// Channel is the PWM channel driven by the digital output.
	Channel int
	// Policy resolves relay conflicts between the input and clock alarm actions.
	Policy Policy
}

// Arbiter remembers the last written outputs so it only writes changes.
type Arbiter struct {
	// actuator receives output changes.
	actuator hardware.Actuator
	// opts holds the channel and the conflict policy.
	opts Options
	// relay is the last relay state written successfully.
	relay bool
	// relayKnown reports whether relay reflects the hardware.
	relayKnown bool
	// out is the last digital output written successfully.
	out Output
	// outKnown reports whether out reflects the hardware.
	outKnown bool
	// lastErr is the last actuator failure.
	lastErr error
}

// NewArbiter creates an arbiter that writes to the actuator.
func NewArbiter(actuator hardware.Actuator, opts Options) *Arbiter {
	return &Arbiter{
		actuator: actuator,
		opts:     opts,
	}
}

// LastError returns the last actuator failure, or nil.
func (a *Arbiter) LastError() error {
	return a.lastErr
}

// Arbitrate resolves both outputs for one tick and writes those that changed.
// Actuator failures are logged and retried on the next tick.
func (a *Arbiter) Arbitrate(
	ctx context.Context,
	signals alarm.Signals,
	snapshot measurement.Snapshot,
	controls *measurement.Controls,
) Decision {
	var decision Decision

	decision.DigitalOut, decision.DigitalSource = a.resolveDigital(signals, snapshot, controls)
	decision.Relay, decision.RelaySource = a.resolveRelay(signals, &controls.Relay)

	var errs []error

	if err := a.writeRelay(decision.Relay); err != nil {
		errs = append(errs, err)
	}

	if err := a.writeDigital(decision.DigitalOut); err != nil {
		errs = append(errs, err)
	}

	a.lastErr = errors.Join(errs...)
	if a.lastErr != nil {
		logger.ErrorKV(ctx, "Actuator write failed", "error", a.lastErr)
	}

	return decision
}

// resolveDigital picks the alarm override, then the fixed level, then the PWM duty.
func (a *Arbiter) resolveDigital(
	signals alarm.Signals,
	snapshot measurement.Snapshot,
	controls *measurement.Controls,
) (Output, Source) {
	cfg := &controls.DigitalOut
	tripped := signals.InputTripped() || signals.Clock

	if tripped && cfg.AlarmAction != measurement.OutputActionNone {
		source := SourceAlarm
		if !signals.InputTripped() {
			source = SourceClock
		}

		return outputFor(cfg.AlarmAction.Mode(), snapshot, controls), source
	}

	if !cfg.Mode.IsPWM() {
		return outputFor(cfg.Mode, snapshot, controls), SourceMode
	}

	// PWM is only recomputed while no alarm is tripped.
	if tripped && a.outKnown {
		return a.out, SourceHold
	}

	return outputFor(cfg.Mode, snapshot, controls), SourceMode
}

// resolveRelay follows the alarm actions while an alarm is tripped and the manual command otherwise.
func (a *Arbiter) resolveRelay(signals alarm.Signals, cfg *measurement.RelayControls) (bool, Source) {
	if !signals.InputTripped() && !signals.Clock {
		return cfg.Manual, SourceManual
	}

	state, source := cfg.Manual, SourceManual
	if a.relayKnown {
		state, source = a.relay, SourceHold
	}

	var input, clock measurement.RelayAction

	if signals.InputTripped() {
		input = cfg.AlarmAction
	}

	if signals.Clock {
		clock = cfg.ClockAction
	}

	apply := func(action measurement.RelayAction, from Source) {
		switch action {
		case measurement.RelayActionTurnOn:
			state, source = true, from
		case measurement.RelayActionTurnOff:
			state, source = false, from
		case measurement.RelayActionNone:
		}
	}

	switch a.opts.Policy {
	case PolicyAlarmWins:
		apply(clock, SourceClock)
		apply(input, SourceAlarm)
	case PolicyPreferOff:
		apply(input, SourceAlarm)
		apply(clock, SourceClock)

		if input == measurement.RelayActionTurnOff {
			state, source = false, SourceAlarm
		}
	default:
		apply(input, SourceAlarm)
		apply(clock, SourceClock)
	}

	return state, source
}

// writeRelay writes the relay when it changed or was never written.
func (a *Arbiter) writeRelay(on bool) error {
	if a.relayKnown && a.relay == on {
		return nil
	}

	if err := a.actuator.SetRelay(on); err != nil {
		a.relayKnown = false

		return err
	}

	a.relay = on
	a.relayKnown = true

	return nil
}

// writeDigital writes the digital output when it changed or was never written.
func (a *Arbiter) writeDigital(out Output) error {
	if a.outKnown && a.out == out {
		return nil
	}

	if out.Mode.IsPWM() {
		if err := a.actuator.SetPwm(a.opts.Channel, out.FrequencyHz, out.Duty); err != nil {
			a.outKnown = false

			return err
		}
	} else {
		if !a.outKnown || a.out.Mode.IsPWM() {
			if err := a.actuator.DetachPwm(a.opts.Channel); err != nil {
				a.outKnown = false

				return err
			}
		}

		if err := a.actuator.SetDigitalLevel(out.Mode == measurement.OutputModeHigh); err != nil {
			a.outKnown = false

			return err
		}
	}

	a.out = out
	a.outKnown = true

	return nil
}

// outputFor builds the output of a drive mode, computing the duty for PWM modes.
func outputFor(mode measurement.OutputMode, snapshot measurement.Snapshot, controls *measurement.Controls) Output {
	if !mode.IsPWM() {
		return Output{Mode: mode}
	}

	duty := Duty(snapshot, controls)
	if mode == measurement.OutputModePWMInverted {
		duty = maxDuty - duty
	}

	return Output{
		Mode:        mode,
		FrequencyHz: int(controls.DigitalOut.Frequency),
		Duty:        duty,
	}
}

// Duty returns the PWM duty cycle in percent from the configured source:
// the fixed value, or a live measurement scaled against the ceiling.
// The ceiling defaults to the alarm limit of the same quantity; a
// non-positive ceiling gives zero duty.
func Duty(snapshot measurement.Snapshot, controls *measurement.Controls) float64 {
	cfg := &controls.DigitalOut

	var value, ceiling float64

	switch cfg.Source {
	case measurement.DutySourceAin:
		value, ceiling = snapshot.AinVoltage, controls.AD.Limits.Secondary
	case measurement.DutySourceCurrent:
		value, ceiling = snapshot.CurrentMA, controls.IV.Limits.Primary
	case measurement.DutySourceTemp:
		value, ceiling = snapshot.ProbeTemp, controls.Temp.Limits.Primary
	case measurement.DutySourceHumidity:
		value, ceiling = snapshot.ModuleHumidity, controls.Temp.Limits.Secondary
	default:
		return clampDuty(cfg.Duty)
	}

	if cfg.Ceiling > 0 {
		ceiling = cfg.Ceiling
	}

	if ceiling <= 0 {
		return 0
	}

	return clampDuty(value / ceiling * maxDuty)
}

// clampDuty limits a duty cycle to [0, 100].
func clampDuty(duty float64) float64 {
	return min(max(duty, 0), maxDuty)
}
