package measurement

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownLabel is returned when a display label does not map to an enum value.
var ErrUnknownLabel = errors.New("unknown label")

// RelayAction is what an alarm does to the relay.
type RelayAction int

const (
	// RelayActionNone leaves the relay as it is.
	RelayActionNone RelayAction = iota
	// RelayActionTurnOn energises the relay.
	RelayActionTurnOn
	// RelayActionTurnOff releases the relay.
	RelayActionTurnOff
)

// relayActionLabels maps relay actions to their display labels.
//
//nolint:gochecknoglobals // Lookup table.
var relayActionLabels = []string{"None", "Turn On", "Turn Off"}

// String returns the display label of the action.
func (a RelayAction) String() string {
	return labelOf(relayActionLabels, int(a))
}

// ParseRelayAction converts a display label into a RelayAction.
func ParseRelayAction(s string) (RelayAction, error) {
	i, err := indexOf(relayActionLabels, s)

	return RelayAction(i), err
}

// OutputMode is the configured drive mode of the digital output.
type OutputMode int

const (
	// OutputModeLow drives the output low.
	OutputModeLow OutputMode = iota
	// OutputModeHigh drives the output high.
	OutputModeHigh
	// OutputModePWM drives the output with a PWM signal.
	OutputModePWM
	// OutputModePWMInverted drives the output with an inverted PWM signal.
	OutputModePWMInverted
)

// outputModeLabels maps output modes to their display labels.
//
//nolint:gochecknoglobals // Lookup table.
var outputModeLabels = []string{"Low", "High", "PWM", "PWM-Inv"}

// String returns the display label of the mode.
func (m OutputMode) String() string {
	return labelOf(outputModeLabels, int(m))
}

// IsPWM reports whether the mode drives a PWM channel.
func (m OutputMode) IsPWM() bool {
	return m == OutputModePWM || m == OutputModePWMInverted
}

// ParseOutputMode converts a display label into an OutputMode.
func ParseOutputMode(s string) (OutputMode, error) {
	i, err := indexOf(outputModeLabels, s)

	return OutputMode(i), err
}

// OutputAction is what an alarm does to the digital output.
type OutputAction int

const (
	// OutputActionNone leaves the digital output in its configured mode.
	OutputActionNone OutputAction = iota
	// OutputActionLow forces the output low.
	OutputActionLow
	// OutputActionHigh forces the output high.
	OutputActionHigh
	// OutputActionPWM drives the output with PWM.
	OutputActionPWM
	// OutputActionPWMInverted drives the output with inverted PWM.
	OutputActionPWMInverted
)

// outputActionLabels maps output actions to their display labels.
//
//nolint:gochecknoglobals // Lookup table.
var outputActionLabels = []string{"None", "Low", "High", "PWM", "PWM-Inv"}

// String returns the display label of the action.
func (a OutputAction) String() string {
	return labelOf(outputActionLabels, int(a))
}

// Mode returns the output mode the action forces. It must not be called for OutputActionNone.
func (a OutputAction) Mode() OutputMode {
	return OutputMode(a - 1)
}

// ParseOutputAction converts a display label into an OutputAction.
func ParseOutputAction(s string) (OutputAction, error) {
	i, err := indexOf(outputActionLabels, s)

	return OutputAction(i), err
}

// DutySource selects where the PWM duty cycle comes from.
type DutySource int

const (
	// DutySourceFixed uses the configured duty value.
	DutySourceFixed DutySource = iota
	// DutySourceAin follows the analog input voltage.
	DutySourceAin
	// DutySourceTemp follows the probe temperature.
	DutySourceTemp
	// DutySourceHumidity follows the module humidity.
	DutySourceHumidity
	// DutySourceCurrent follows the load current.
	DutySourceCurrent
)

// dutySourceLabels maps duty sources to their display labels.
//
//nolint:gochecknoglobals // Lookup table.
var dutySourceLabels = []string{"Fixed", "Ain", "Temp", "Humidity", "Current"}

// String returns the display label of the source.
func (d DutySource) String() string {
	return labelOf(dutySourceLabels, int(d))
}

// ParseDutySource converts a display label into a DutySource.
func ParseDutySource(s string) (DutySource, error) {
	i, err := indexOf(dutySourceLabels, s)

	return DutySource(i), err
}

// PwmFrequency is a PWM carrier frequency in hertz.
type PwmFrequency int

// Supported PWM frequencies.
const (
	PwmFrequency1KHz PwmFrequency = 1000
	PwmFrequency2KHz PwmFrequency = 2000
	PwmFrequency4KHz PwmFrequency = 4000
	PwmFrequency8KHz PwmFrequency = 8000
)

// String returns the display label of the frequency, e.g. "4 KHz".
func (f PwmFrequency) String() string {
	return fmt.Sprintf("%d KHz", int(f)/1000)
}

// ParsePwmFrequency converts a display label such as "4 KHz" into a frequency.
func ParsePwmFrequency(s string) (PwmFrequency, error) {
	for _, f := range []PwmFrequency{PwmFrequency1KHz, PwmFrequency2KHz, PwmFrequency4KHz, PwmFrequency8KHz} {
		if strings.EqualFold(strings.TrimSpace(s), f.String()) {
			return f, nil
		}
	}

	return PwmFrequency4KHz, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// Thresholds are the one or two limits of an input alarm domain.
type Thresholds struct {
	// Primary is the first limit (count, current or temperature).
	Primary float64
	// Secondary is the second limit (analog voltage, load voltage or humidity).
	Secondary float64
}

// InputAlarm is the operator configuration of one sensor-backed alarm domain.
type InputAlarm struct {
	// Enabled turns the alarm on.
	Enabled bool
	// Limits are the thresholds compared against live values.
	Limits Thresholds
}

// ClockAlarm is the operator configuration of the time-of-day alarm.
type ClockAlarm struct {
	// Armed turns the alarm on. Disarming clears a latched trip.
	Armed bool
	// At is the alarm time in ClockLayout.
	At string
}

// SessionLimits are the cadence settings shared by all monitoring sessions.
type SessionLimits struct {
	// SampleInterval is the minimum time between two logged samples.
	SampleInterval time.Duration
	// DurationLimit stops a session once elapsed time exceeds it.
	DurationLimit time.Duration
}

// RelayControls configure the relay output.
type RelayControls struct {
	// Manual is the last manual relay command.
	Manual bool
	// AlarmAction is applied while an input alarm is tripped.
	AlarmAction RelayAction
	// ClockAction is applied while the clock alarm is tripped.
	ClockAction RelayAction
}

// DigitalOutControls configure the digital/PWM output.
type DigitalOutControls struct {
	// Mode is the drive mode used when no alarm overrides it.
	Mode OutputMode
	// Frequency is the PWM carrier frequency.
	Frequency PwmFrequency
	// Duty is the fixed duty cycle in percent.
	Duty float64
	// Source selects the duty cycle source.
	Source DutySource
	// Ceiling maps a live measurement to 100% duty. Zero uses the matching alarm limit.
	Ceiling float64
	// AlarmAction is applied while an input alarm or the clock alarm is tripped.
	AlarmAction OutputAction
}

// Controls is the full typed operator configuration.
type Controls struct {
	// Session holds the sampling cadence.
	Session SessionLimits
	// AD is the digital/analog input alarm.
	AD InputAlarm
	// IV is the current/voltage alarm.
	IV InputAlarm
	// Temp is the temperature/humidity alarm.
	Temp InputAlarm
	// Clock is the time-of-day alarm.
	Clock ClockAlarm
	// Relay configures the relay output.
	Relay RelayControls
	// DigitalOut configures the digital/PWM output.
	DigitalOut DigitalOutControls
}

// Alarm returns the input alarm configuration of a domain.
func (c *Controls) Alarm(d Domain) InputAlarm {
	switch d {
	case DomainAD:
		return c.AD
	case DomainIV:
		return c.IV
	case DomainTemp:
		return c.Temp
	default:
		return InputAlarm{}
	}
}

// DefaultControls returns the factory settings of the logger.
func DefaultControls() Controls {
	return Controls{
		Session: SessionLimits{
			SampleInterval: 600 * time.Millisecond,
			DurationLimit:  time.Minute,
		},
		AD: InputAlarm{
			Limits: Thresholds{Primary: 20, Secondary: 24},
		},
		IV: InputAlarm{
			Limits: Thresholds{Primary: 10, Secondary: 10},
		},
		Temp: InputAlarm{
			Limits: Thresholds{Primary: 100, Secondary: 50},
		},
		DigitalOut: DigitalOutControls{
			Mode:      OutputModeLow,
			Frequency: PwmFrequency4KHz,
			Duty:      50,
			Source:    DutySourceFixed,
		},
	}
}

// labelOf returns the label at index i or a placeholder for out-of-range values.
func labelOf(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return fmt.Sprintf("unknown(%d)", i)
	}

	return labels[i]
}

// indexOf finds a label case-insensitively.
func indexOf(labels []string, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, label := range labels {
		if strings.EqualFold(label, s) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}
