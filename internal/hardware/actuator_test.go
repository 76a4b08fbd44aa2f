package hardware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestActuator = errors.New("test actuator error")

// TestLogging_ForwardsCalls checks the decorator forwards every call and its error.
func TestLogging_ForwardsCalls(t *testing.T) {
	t.Parallel()

	rec := new(Recorder)
	act := NewLogging(context.Background(), rec)

	require.NoError(t, act.SetRelay(true))
	require.NoError(t, act.SetDigitalLevel(false))
	require.NoError(t, act.SetPwm(0, 4000, 50))
	require.NoError(t, act.DetachPwm(0))

	calls := rec.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, "SetRelay(true)", calls[0].String())
	require.Equal(t, "SetDigitalLevel(false)", calls[1].String())
	require.Equal(t, "SetPwm(0, 4000, 50.0)", calls[2].String())
	require.Equal(t, "DetachPwm(0)", calls[3].String())

	rec.FailWith(errTestActuator)
	require.ErrorIs(t, act.SetRelay(false), errTestActuator)
}

// TestLogging_DryRun accepts calls without a wrapped actuator.
func TestLogging_DryRun(t *testing.T) {
	t.Parallel()

	act := NewLogging(context.Background(), nil)
	require.NoError(t, act.SetRelay(true))
	require.NoError(t, act.SetPwm(1, 1000, 10))
}
