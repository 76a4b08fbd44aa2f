package display

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// Screen IDs.
const (
	ScreenSetup      = "setup"
	ScreenAD         = "ad"
	ScreenIV         = "iv"
	ScreenTemp       = "temp"
	ScreenClock      = "clock"
	ScreenRelay      = "relay"
	ScreenDigitalOut = "dout"
)

// Field IDs.
const (
	FieldInterval    = "interval"
	FieldDuration    = "duration"
	FieldAlarm       = "alarm"
	FieldLimit1      = "limit1"
	FieldLimit2      = "limit2"
	FieldTime        = "time"
	FieldManual      = "manual"
	FieldAlarmAction = "alarm_action"
	FieldClockAction = "clock_action"
	FieldMode        = "mode"
	FieldFrequency   = "frequency"
	FieldDuty        = "duty"
	FieldSource      = "source"
	FieldCeiling     = "ceiling"
)

// Toggle labels.
const (
	LabelEnabled  = "Enabled"
	LabelDisabled = "Disabled"
	LabelAlarmOn  = "AlarmOn"
	LabelAlarmOff = "AlarmOff"
	LabelOn       = "On"
	LabelOff      = "Off"
)

var (
	// ErrUnknownField is returned for screen/field pairs the core does not use.
	ErrUnknownField = errors.New("unknown field")
	// ErrMissingValue is reported for empty fields.
	ErrMissingValue = errors.New("missing value")
	// ErrInvalidValue is reported for labels that cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError describes a field that could not be converted.
type FieldError struct {
	// Screen is the screen ID.
	Screen string
	// Field is the field ID.
	Field string
	// Value is the offending label.
	Value string
	// Err is ErrMissingValue, ErrInvalidValue or ErrUnknownField.
	Err error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s/%s=%q: %v", e.Screen, e.Field, e.Value, e.Err)
}

// Unwrap returns the cause.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Key joins a screen and a field ID.
func Key(screen, field string) string {
	return screen + "/" + field
}

// SplitKey splits a "screen/field" key.
func SplitKey(key string) (screen, field string, ok bool) {
	return strings.Cut(key, "/")
}

// kind is the value type of a field.
type kind int

const (
	kindNumber kind = iota
	kindMinutes
	kindEnabled
	kindArmed
	kindOnOff
	kindClock
	kindRelayAction
	kindOutputMode
	kindOutputAction
	kindDutySource
	kindFrequency
)

// fieldKinds lists every field the core reads.
//
//nolint:gochecknoglobals // Lookup table.
var fieldKinds = map[string]kind{
	Key(ScreenSetup, FieldInterval):         kindMinutes,
	Key(ScreenSetup, FieldDuration):         kindMinutes,
	Key(ScreenAD, FieldAlarm):               kindEnabled,
	Key(ScreenAD, FieldLimit1):              kindNumber,
	Key(ScreenAD, FieldLimit2):              kindNumber,
	Key(ScreenIV, FieldAlarm):               kindEnabled,
	Key(ScreenIV, FieldLimit1):              kindNumber,
	Key(ScreenIV, FieldLimit2):              kindNumber,
	Key(ScreenTemp, FieldAlarm):             kindEnabled,
	Key(ScreenTemp, FieldLimit1):            kindNumber,
	Key(ScreenTemp, FieldLimit2):            kindNumber,
	Key(ScreenClock, FieldAlarm):            kindArmed,
	Key(ScreenClock, FieldTime):             kindClock,
	Key(ScreenRelay, FieldManual):           kindOnOff,
	Key(ScreenRelay, FieldAlarmAction):      kindRelayAction,
	Key(ScreenRelay, FieldClockAction):      kindRelayAction,
	Key(ScreenDigitalOut, FieldMode):        kindOutputMode,
	Key(ScreenDigitalOut, FieldFrequency):   kindFrequency,
	Key(ScreenDigitalOut, FieldDuty):        kindNumber,
	Key(ScreenDigitalOut, FieldSource):      kindDutySource,
	Key(ScreenDigitalOut, FieldCeiling):     kindNumber,
	Key(ScreenDigitalOut, FieldAlarmAction): kindOutputAction,
}

// ValidateField checks that a label is acceptable for a field before it is stored.
func ValidateField(screen, field, value string) error {
	k, ok := fieldKinds[Key(screen, field)]
	if !ok {
		return &FieldError{Screen: screen, Field: field, Value: value, Err: ErrUnknownField}
	}

	var err error

	switch k {
	case kindNumber, kindMinutes:
		_, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
	case kindEnabled:
		err = oneOf(value, LabelEnabled, LabelDisabled)
	case kindArmed:
		err = oneOf(value, LabelAlarmOn, LabelAlarmOff)
	case kindOnOff:
		err = oneOf(value, LabelOn, LabelOff)
	case kindClock:
		if value != "" {
			_, err = time.Parse(measurement.ClockLayout, value)
		}
	case kindRelayAction:
		_, err = measurement.ParseRelayAction(value)
	case kindOutputMode:
		_, err = measurement.ParseOutputMode(value)
	case kindOutputAction:
		_, err = measurement.ParseOutputAction(value)
	case kindDutySource:
		_, err = measurement.ParseDutySource(value)
	case kindFrequency:
		_, err = measurement.ParsePwmFrequency(value)
	}

	if err != nil {
		return &FieldError{Screen: screen, Field: field, Value: value, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}

	return nil
}

// oneOf accepts one of the given labels, case-insensitively.
func oneOf(value string, labels ...string) error {
	for _, label := range labels {
		if strings.EqualFold(strings.TrimSpace(value), label) {
			return nil
		}
	}

	return fmt.Errorf("want one of %s", strings.Join(labels, ", "))
}
