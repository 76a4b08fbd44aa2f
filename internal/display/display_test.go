package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// TestNewMemory_FactorySettings reads back the defaults written by NewMemory.
func TestNewMemory_FactorySettings(t *testing.T) {
	t.Parallel()

	p := NewMemory()

	require.Equal(t, "0.01", p.GetConfigValue(ScreenSetup, FieldInterval))
	require.Equal(t, "1", p.GetConfigValue(ScreenSetup, FieldDuration))
	require.Equal(t, "Disabled", p.GetConfigValue(ScreenAD, FieldAlarm))
	require.Equal(t, "AlarmOff", p.GetConfigValue(ScreenClock, FieldAlarm))
	require.Equal(t, "4 KHz", p.GetConfigValue(ScreenDigitalOut, FieldFrequency))

	c, err := ReadControls(p)
	require.NoError(t, err)
	require.Equal(t, measurement.DefaultControls(), c)
}

// TestReadControls_ParsesLabels converts every label kind.
func TestReadControls_ParsesLabels(t *testing.T) {
	t.Parallel()

	p := NewMemory()
	p.SetConfigValue(ScreenSetup, FieldInterval, "1")
	p.SetConfigValue(ScreenSetup, FieldDuration, "24")
	p.SetConfigValue(ScreenIV, FieldAlarm, "Enabled")
	p.SetConfigValue(ScreenIV, FieldLimit1, "250.5")
	p.SetConfigValue(ScreenClock, FieldAlarm, "AlarmOn")
	p.SetConfigValue(ScreenClock, FieldTime, "2024-06-01 07:00:00")
	p.SetConfigValue(ScreenRelay, FieldManual, "On")
	p.SetConfigValue(ScreenRelay, FieldAlarmAction, "Turn On")
	p.SetConfigValue(ScreenRelay, FieldClockAction, "Turn Off")
	p.SetConfigValue(ScreenDigitalOut, FieldMode, "PWM-Inv")
	p.SetConfigValue(ScreenDigitalOut, FieldFrequency, "8 KHz")
	p.SetConfigValue(ScreenDigitalOut, FieldSource, "Humidity")
	p.SetConfigValue(ScreenDigitalOut, FieldAlarmAction, "High")

	c, err := ReadControls(p)
	require.NoError(t, err)
	require.Equal(t, time.Minute, c.Session.SampleInterval)
	require.Equal(t, 24*time.Minute, c.Session.DurationLimit)
	require.True(t, c.IV.Enabled)
	require.InDelta(t, 250.5, c.IV.Limits.Primary, 1e-9)
	require.True(t, c.Clock.Armed)
	require.Equal(t, "2024-06-01 07:00:00", c.Clock.At)
	require.True(t, c.Relay.Manual)
	require.Equal(t, measurement.RelayActionTurnOn, c.Relay.AlarmAction)
	require.Equal(t, measurement.RelayActionTurnOff, c.Relay.ClockAction)
	require.Equal(t, measurement.OutputModePWMInverted, c.DigitalOut.Mode)
	require.Equal(t, measurement.PwmFrequency8KHz, c.DigitalOut.Frequency)
	require.Equal(t, measurement.DutySourceHumidity, c.DigitalOut.Source)
	require.Equal(t, measurement.OutputActionHigh, c.DigitalOut.AlarmAction)
}

// TestReadControls_BadValuesReadAsZero reports each bad field and substitutes zero.
func TestReadControls_BadValuesReadAsZero(t *testing.T) {
	t.Parallel()

	p := NewMemory()
	p.SetConfigValue(ScreenTemp, FieldLimit1, "hot")
	p.SetConfigValue(ScreenTemp, FieldLimit2, "")
	p.SetConfigValue(ScreenRelay, FieldAlarmAction, "Toggle")

	c, err := ReadControls(p)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidValue)
	require.ErrorIs(t, err, ErrMissingValue)
	require.Contains(t, err.Error(), "temp/limit1")
	require.Zero(t, c.Temp.Limits.Primary)
	require.Zero(t, c.Temp.Limits.Secondary)
	require.Equal(t, measurement.RelayActionNone, c.Relay.AlarmAction)
	require.InDelta(t, 24.0, c.AD.Limits.Secondary, 1e-9)
}

// TestValidateField checks known fields accept valid labels only.
func TestValidateField(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateField(ScreenSetup, FieldInterval, "0.5"))
	require.NoError(t, ValidateField(ScreenClock, FieldTime, "2024-06-01 07:00:00"))
	require.NoError(t, ValidateField(ScreenClock, FieldTime, ""))
	require.NoError(t, ValidateField(ScreenDigitalOut, FieldFrequency, "2 KHz"))
	require.NoError(t, ValidateField(ScreenAD, FieldAlarm, "enabled"))

	require.ErrorIs(t, ValidateField(ScreenSetup, FieldInterval, "soon"), ErrInvalidValue)
	require.ErrorIs(t, ValidateField(ScreenClock, FieldTime, "07:00"), ErrInvalidValue)
	require.ErrorIs(t, ValidateField(ScreenRelay, FieldManual, "Maybe"), ErrInvalidValue)
	require.ErrorIs(t, ValidateField("graph", "zoom", "2"), ErrUnknownField)
	require.ErrorIs(t, ValidateField(ScreenDigitalOut, FieldClockAction, "High"), ErrUnknownField)
}

// TestMemory_ScreenAndRedraw tracks the shown screen and redraw requests.
func TestMemory_ScreenAndRedraw(t *testing.T) {
	t.Parallel()

	p := NewMemory()
	require.Equal(t, measurement.DomainNone, p.CurrentScreenKind())

	p.SetCurrentScreen(measurement.DomainIV)
	p.RequestRedraw()
	p.RequestRedraw()

	require.Equal(t, measurement.DomainIV, p.CurrentScreenKind())
	require.Equal(t, 2, p.Redraws())

	values := p.Values()
	values[Key(ScreenAD, FieldLimit1)] = "1"
	require.Equal(t, "20", p.GetConfigValue(ScreenAD, FieldLimit1))

	p.Load(map[string]string{Key(ScreenAD, FieldLimit1): "5"})
	require.Equal(t, "5", p.GetConfigValue(ScreenAD, FieldLimit1))

	screen, field, ok := SplitKey(Key(ScreenAD, FieldLimit1))
	require.True(t, ok)
	require.Equal(t, ScreenAD, screen)
	require.Equal(t, FieldLimit1, field)
}
