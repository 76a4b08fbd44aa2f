package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// TestEvaluate_NonLatching checks that an input alarm follows the value with no memory.
func TestEvaluate_NonLatching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEvaluator()
	alarm := measurement.InputAlarm{Enabled: true, Limits: measurement.Thresholds{Primary: 100, Secondary: 50}}

	values := []float64{90, 99, 101, 120, 100, 80, 101}
	want := []bool{false, false, true, true, false, false, true}

	for i, v := range values {
		got := e.Evaluate(ctx, measurement.DomainTemp, measurement.Snapshot{ProbeTemp: v}, alarm)
		require.Equal(t, want[i], got, "tick %d", i)
		require.Equal(t, want[i], e.Signals().Temp)
	}
}

// TestEvaluate_DisableClears verifies disabling drops a tripped alarm immediately.
func TestEvaluate_DisableClears(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEvaluator()
	over := measurement.Snapshot{CurrentMA: 50}
	alarm := measurement.InputAlarm{Enabled: true, Limits: measurement.Thresholds{Primary: 10, Secondary: 10}}

	require.True(t, e.Evaluate(ctx, measurement.DomainIV, over, alarm))
	require.True(t, e.Signals().InputTripped())

	alarm.Enabled = false
	require.False(t, e.Evaluate(ctx, measurement.DomainIV, over, alarm))
	require.False(t, e.Signals().InputTripped())
}

// TestExceeded_Rules covers every quantity that can trip each domain.
func TestExceeded_Rules(t *testing.T) {
	t.Parallel()

	limits := measurement.Thresholds{Primary: 10, Secondary: 20}

	require.True(t, Exceeded(measurement.DomainAD, measurement.Snapshot{DinCount: 11}, limits))
	require.True(t, Exceeded(measurement.DomainAD, measurement.Snapshot{AinVoltage: 21}, limits))
	require.False(t, Exceeded(measurement.DomainAD, measurement.Snapshot{DinCount: 10, AinVoltage: 20}, limits))

	require.True(t, Exceeded(measurement.DomainIV, measurement.Snapshot{CurrentMA: 11}, limits))
	require.True(t, Exceeded(measurement.DomainIV, measurement.Snapshot{LoadVoltage: 21}, limits))
	require.False(t, Exceeded(measurement.DomainIV, measurement.Snapshot{PowerMW: 1000}, limits))

	require.True(t, Exceeded(measurement.DomainTemp, measurement.Snapshot{ProbeTemp: 11}, limits))
	require.True(t, Exceeded(measurement.DomainTemp, measurement.Snapshot{ModuleTemp: 11}, limits))
	require.True(t, Exceeded(measurement.DomainTemp, measurement.Snapshot{ModuleHumidity: 21}, limits))
	require.False(t, Exceeded(measurement.DomainTemp, measurement.Snapshot{ModuleHumidity: 20}, limits))

	require.False(t, Exceeded(measurement.DomainClock, measurement.Snapshot{ProbeTemp: 1e9}, limits))
}

// TestEvaluateClock_Latches checks the clock alarm stays tripped after the match passes
// and only clears on the tick it is disarmed.
func TestEvaluateClock_Latches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEvaluator()
	at := "2024-06-01 07:00:00"

	require.False(t, e.EvaluateClock(ctx, "2024-06-01 06:59:59", at, true))
	require.True(t, e.EvaluateClock(ctx, "2024-06-01 07:00:00", at, true))
	require.True(t, e.EvaluateClock(ctx, "2024-06-01 07:00:01", at, true))
	require.True(t, e.EvaluateClock(ctx, "2024-06-01 08:30:00", at, true))
	require.False(t, e.EvaluateClock(ctx, "2024-06-01 08:30:01", at, false))
	require.False(t, e.EvaluateClock(ctx, "2024-06-01 08:30:02", at, true))
}

// TestEvaluateClock_IgnoresMatchWhileDisarmed never trips while disarmed or without a configured time.
func TestEvaluateClock_IgnoresMatchWhileDisarmed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEvaluator()

	require.False(t, e.EvaluateClock(ctx, "2024-06-01 07:00:00", "2024-06-01 07:00:00", false))
	require.False(t, e.EvaluateClock(ctx, "", "", true))
}

// TestEvaluateAll_IndependentOfDisplay evaluates every domain in one call.
func TestEvaluateAll_IndependentOfDisplay(t *testing.T) {
	t.Parallel()

	controls := measurement.DefaultControls()
	controls.AD.Enabled = true
	controls.Temp.Enabled = true

	snapshot := measurement.Snapshot{DinCount: 25, ProbeTemp: 20, CurrentMA: 500}

	signals := NewEvaluator().EvaluateAll(context.Background(), snapshot, &controls)
	require.True(t, signals.AD)
	require.False(t, signals.IV)
	require.False(t, signals.Temp)
	require.False(t, signals.Clock)
	require.True(t, signals.InputTripped())
}

// TestEvaluateClockOnly latches the clock alarm and keeps the last input alarm states.
func TestEvaluateClockOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := NewEvaluator()
	controls := measurement.DefaultControls()
	controls.IV = measurement.InputAlarm{Enabled: true, Limits: measurement.Thresholds{Primary: 10, Secondary: 10}}
	controls.Clock = measurement.ClockAlarm{Armed: true, At: "2024-06-01 07:00:00"}

	require.True(t, e.Evaluate(ctx, measurement.DomainIV, measurement.Snapshot{CurrentMA: 50}, controls.IV))

	signals := e.EvaluateClockOnly(ctx, time.Date(2024, 6, 1, 7, 0, 0, 0, time.Local), &controls)
	require.True(t, signals.Clock)
	require.True(t, signals.IV)
	require.False(t, signals.AD)
}
