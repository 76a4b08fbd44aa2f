package measurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseDomain covers known names, case folding and unknown values.
func TestParseDomain(t *testing.T) {
	t.Parallel()

	for _, d := range []Domain{DomainNone, DomainAD, DomainIV, DomainTemp, DomainClock} {
		got, err := ParseDomain(d.String())
		require.NoError(t, err)
		require.Equal(t, d, got)
	}

	got, err := ParseDomain(" TEMP ")
	require.NoError(t, err)
	require.Equal(t, DomainTemp, got)

	_, err = ParseDomain("pressure")
	require.ErrorIs(t, err, ErrUnknownDomain)
}

// TestLabels_RoundTrip checks every enum label parses back to the same value.
func TestLabels_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, a := range []RelayAction{RelayActionNone, RelayActionTurnOn, RelayActionTurnOff} {
		got, err := ParseRelayAction(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}

	for _, m := range []OutputMode{OutputModeLow, OutputModeHigh, OutputModePWM, OutputModePWMInverted} {
		got, err := ParseOutputMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	for _, s := range []DutySource{DutySourceFixed, DutySourceAin, DutySourceTemp, DutySourceHumidity, DutySourceCurrent} {
		got, err := ParseDutySource(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}

	f, err := ParsePwmFrequency("8 KHz")
	require.NoError(t, err)
	require.Equal(t, PwmFrequency8KHz, f)

	_, err = ParseRelayAction("Toggle")
	require.ErrorIs(t, err, ErrUnknownLabel)
}

// TestOutputAction_Mode ensures alarm actions map to the matching drive modes.
func TestOutputAction_Mode(t *testing.T) {
	t.Parallel()

	require.Equal(t, OutputModeLow, OutputActionLow.Mode())
	require.Equal(t, OutputModeHigh, OutputActionHigh.Mode())
	require.Equal(t, OutputModePWM, OutputActionPWM.Mode())
	require.Equal(t, OutputModePWMInverted, OutputActionPWMInverted.Mode())
	require.Equal(t, "PWM-Inv", OutputActionPWMInverted.String())
}

// TestSnapshot_ClockString verifies the clock alarm layout.
func TestSnapshot_ClockString(t *testing.T) {
	t.Parallel()

	s := Snapshot{Time: time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC)}
	require.Equal(t, "2024-03-09 07:05:00", s.ClockString())
	require.Empty(t, Snapshot{}.ClockString())
}
