package display

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// ReadControls converts the panel's labels into typed controls.
// A missing or non-numeric number reads as 0 and an unknown label reads as
// the enum's zero value; each such field is reported in the joined error,
// while the returned controls are always usable.
func ReadControls(p Panel) (measurement.Controls, error) {
	r := &reader{panel: p}

	var c measurement.Controls

	c.Session.SampleInterval = r.minutes(ScreenSetup, FieldInterval)
	c.Session.DurationLimit = r.minutes(ScreenSetup, FieldDuration)

	c.AD = r.inputAlarm(ScreenAD)
	c.IV = r.inputAlarm(ScreenIV)
	c.Temp = r.inputAlarm(ScreenTemp)

	c.Clock.Armed = r.toggle(ScreenClock, FieldAlarm, LabelAlarmOn)
	c.Clock.At = strings.TrimSpace(p.GetConfigValue(ScreenClock, FieldTime))

	c.Relay.Manual = r.toggle(ScreenRelay, FieldManual, LabelOn)
	c.Relay.AlarmAction = r.relayAction(ScreenRelay, FieldAlarmAction)
	c.Relay.ClockAction = r.relayAction(ScreenRelay, FieldClockAction)

	c.DigitalOut.Mode = r.outputMode(ScreenDigitalOut, FieldMode)
	c.DigitalOut.Frequency = r.frequency(ScreenDigitalOut, FieldFrequency)
	c.DigitalOut.Duty = r.number(ScreenDigitalOut, FieldDuty)
	c.DigitalOut.Source = r.dutySource(ScreenDigitalOut, FieldSource)
	c.DigitalOut.Ceiling = r.number(ScreenDigitalOut, FieldCeiling)
	c.DigitalOut.AlarmAction = r.outputAction(ScreenDigitalOut, FieldAlarmAction)

	return c, errors.Join(r.errs...)
}

// WriteControls renders typed controls as panel labels.
func WriteControls(p Panel, c *measurement.Controls) {
	p.SetConfigValue(ScreenSetup, FieldInterval, formatMinutes(c.Session.SampleInterval))
	p.SetConfigValue(ScreenSetup, FieldDuration, formatMinutes(c.Session.DurationLimit))

	writeInputAlarm(p, ScreenAD, c.AD)
	writeInputAlarm(p, ScreenIV, c.IV)
	writeInputAlarm(p, ScreenTemp, c.Temp)

	p.SetConfigValue(ScreenClock, FieldAlarm, label(c.Clock.Armed, LabelAlarmOn, LabelAlarmOff))
	p.SetConfigValue(ScreenClock, FieldTime, c.Clock.At)

	p.SetConfigValue(ScreenRelay, FieldManual, label(c.Relay.Manual, LabelOn, LabelOff))
	p.SetConfigValue(ScreenRelay, FieldAlarmAction, c.Relay.AlarmAction.String())
	p.SetConfigValue(ScreenRelay, FieldClockAction, c.Relay.ClockAction.String())

	p.SetConfigValue(ScreenDigitalOut, FieldMode, c.DigitalOut.Mode.String())
	p.SetConfigValue(ScreenDigitalOut, FieldFrequency, c.DigitalOut.Frequency.String())
	p.SetConfigValue(ScreenDigitalOut, FieldDuty, formatNumber(c.DigitalOut.Duty))
	p.SetConfigValue(ScreenDigitalOut, FieldSource, c.DigitalOut.Source.String())
	p.SetConfigValue(ScreenDigitalOut, FieldCeiling, formatNumber(c.DigitalOut.Ceiling))
	p.SetConfigValue(ScreenDigitalOut, FieldAlarmAction, c.DigitalOut.AlarmAction.String())
}

// writeInputAlarm renders one input alarm screen.
func writeInputAlarm(p Panel, screen string, a measurement.InputAlarm) {
	p.SetConfigValue(screen, FieldAlarm, label(a.Enabled, LabelEnabled, LabelDisabled))
	p.SetConfigValue(screen, FieldLimit1, formatNumber(a.Limits.Primary))
	p.SetConfigValue(screen, FieldLimit2, formatNumber(a.Limits.Secondary))
}

// reader reads typed values and collects conversion failures.
type reader struct {
	// panel is the label source.
	panel Panel
	// errs collects one FieldError per bad field.
	errs []error
}

// fail records a bad field.
func (r *reader) fail(screen, field, value string, err error) {
	r.errs = append(r.errs, &FieldError{Screen: screen, Field: field, Value: value, Err: err})
}

// get returns a trimmed label and records a missing value.
func (r *reader) get(screen, field string) (string, bool) {
	value := strings.TrimSpace(r.panel.GetConfigValue(screen, field))
	if value == "" {
		r.fail(screen, field, value, ErrMissingValue)

		return "", false
	}

	return value, true
}

// number reads a decimal; failures read as 0.
func (r *reader) number(screen, field string) float64 {
	value, ok := r.get(screen, field)
	if !ok {
		return 0
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) {
		r.fail(screen, field, value, ErrInvalidValue)

		return 0
	}

	return v
}

// minutes reads a decimal number of minutes.
func (r *reader) minutes(screen, field string) time.Duration {
	return time.Duration(math.Round(r.number(screen, field) * float64(time.Minute)))
}

// toggle reports whether the label equals on.
func (r *reader) toggle(screen, field, on string) bool {
	value, ok := r.get(screen, field)

	return ok && strings.EqualFold(value, on)
}

// inputAlarm reads the toggle and both limits of an alarm screen.
func (r *reader) inputAlarm(screen string) measurement.InputAlarm {
	return measurement.InputAlarm{
		Enabled: r.toggle(screen, FieldAlarm, LabelEnabled),
		Limits: measurement.Thresholds{
			Primary:   r.number(screen, FieldLimit1),
			Secondary: r.number(screen, FieldLimit2),
		},
	}
}

// relayAction reads a relay action label.
func (r *reader) relayAction(screen, field string) measurement.RelayAction {
	return parseEnum(r, screen, field, measurement.ParseRelayAction)
}

// outputMode reads an output mode label.
func (r *reader) outputMode(screen, field string) measurement.OutputMode {
	return parseEnum(r, screen, field, measurement.ParseOutputMode)
}

// outputAction reads an output action label.
func (r *reader) outputAction(screen, field string) measurement.OutputAction {
	return parseEnum(r, screen, field, measurement.ParseOutputAction)
}

// dutySource reads a duty source label.
func (r *reader) dutySource(screen, field string) measurement.DutySource {
	return parseEnum(r, screen, field, measurement.ParseDutySource)
}

// frequency reads a PWM frequency label.
func (r *reader) frequency(screen, field string) measurement.PwmFrequency {
	value, ok := r.get(screen, field)
	if !ok {
		return measurement.PwmFrequency4KHz
	}

	f, err := measurement.ParsePwmFrequency(value)
	if err != nil {
		r.fail(screen, field, value, fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}

	return f
}

// parseEnum reads a label with parse and records failures.
func parseEnum[T ~int](r *reader, screen, field string, parse func(string) (T, error)) T {
	var zero T

	value, ok := r.get(screen, field)
	if !ok {
		return zero
	}

	v, err := parse(value)
	if err != nil {
		r.fail(screen, field, value, fmt.Errorf("%w: %v", ErrInvalidValue, err))

		return zero
	}

	return v
}

// formatNumber renders a decimal without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatMinutes renders a duration as decimal minutes.
func formatMinutes(d time.Duration) string {
	return formatNumber(d.Minutes())
}

// label picks one of two toggle labels.
func label(v bool, on, off string) string {
	if v {
		return on
	}

	return off
}
