package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/repository/results"
	"github.com/oshokin/datalogger/internal/sensors"
)

// wall is the start time used to name record files in tests.
//
//nolint:gochecknoglobals // Test fixture.
var wall = time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)

// newTestSession builds a session for a domain writing into dir.
func newTestSession(t *testing.T, domain measurement.Domain, dir string, capacity int) *Session {
	t.Helper()

	feed, err := sensors.FeedFor(domain)
	require.NoError(t, err)

	s, err := New(feed, Options{Dir: dir, Capacity: capacity, Precision: results.DefaultPrecision})
	require.NoError(t, err)

	return s
}

// ivSnapshot returns a snapshot whose IV quantities are derived from v.
func ivSnapshot(v float64) measurement.Snapshot {
	return measurement.Snapshot{CurrentMA: v, LoadVoltage: v + 100, PowerMW: v + 200}
}

// TestSession_IdleTickIsNoop ensures nothing happens before Start.
func TestSession_IdleTickIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, measurement.DomainIV, t.TempDir(), 25)

	result := s.Tick(context.Background(), time.Unix(0, 0), ivSnapshot(1))
	require.Equal(t, TickResult{}, result)
	require.Equal(t, StateIdle, s.Status().State)
	require.NoError(t, s.Stop(context.Background()))
}

// TestSession_CapacityScenario runs capacity 25, interval 1 min, duration 24 min one tick per minute.
// The seed plus 24 appends fill the ring once, the 25th point triggers the only flush,
// the cursor goes back to 1 and the tick after the limit stops the session.
func TestSession_CapacityScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s := newTestSession(t, measurement.DomainIV, dir, 25)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Minute, DurationLimit: 24 * time.Minute})

	t0 := time.Unix(10_000, 0)
	s.Start(ctx, t0, wall)
	require.True(t, s.Running())

	first := s.Tick(ctx, t0, ivSnapshot(0))
	require.True(t, first.Seeded)
	require.False(t, first.Logged)

	for minute := 1; minute <= 23; minute++ {
		result := s.Tick(ctx, t0.Add(time.Duration(minute)*time.Minute), ivSnapshot(float64(minute)))
		require.True(t, result.Logged)
		require.False(t, result.Flushed)
	}

	result := s.Tick(ctx, t0.Add(24*time.Minute), ivSnapshot(24))
	require.True(t, result.Logged)
	require.True(t, result.Flushed)
	require.False(t, result.Stopped)

	status := s.Status()
	require.Equal(t, 3, status.Flushes)
	require.Equal(t, 1, status.Buffered)
	require.Equal(t, 25, status.Samples)

	prev, last, ok := s.LastTwo(0)
	require.False(t, ok)
	require.Zero(t, prev)
	require.Zero(t, last)

	result = s.Tick(ctx, t0.Add(25*time.Minute), ivSnapshot(25))
	require.True(t, result.Stopped)
	require.False(t, result.Logged)
	require.False(t, s.Running())

	status = s.Status()
	require.Equal(t, 3, status.Flushes)
	require.Equal(t, 25, status.Samples)
	require.Len(t, status.Files, 3)

	current := results.NewStore(filepath.Join(dir, "ivCurrent_2024-06-01_09-30-00.csv"), 2).ReadAll()
	require.Len(t, current, 25)

	for i, p := range current {
		require.InDelta(t, float64(i), p.X, 0.001)
		require.InDelta(t, float64(i), p.Y, 0.001)
	}

	power := results.NewStore(filepath.Join(dir, "ivPower_2024-06-01_09-30-00.csv"), 2).ReadAll()
	require.Len(t, power, 25)
	require.InDelta(t, 224.0, power[24].Y, 0.001)
}

// TestSession_StopDrainsPartialBuffer ensures a manual stop writes points that never filled the ring.
func TestSession_StopDrainsPartialBuffer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s := newTestSession(t, measurement.DomainAD, dir, 25)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Second, DurationLimit: time.Hour})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)

	for i := range 4 {
		s.Tick(ctx, t0.Add(time.Duration(i)*time.Second), measurement.Snapshot{DinCount: float64(i), AinVoltage: 1.5})
	}

	history := s.History(0)
	require.Len(t, history, 4)

	require.NoError(t, s.Stop(ctx))
	require.False(t, s.Running())

	counts := results.NewStore(filepath.Join(dir, "dinCount_2024-06-01_09-30-00.csv"), 2).ReadAll()
	require.Len(t, counts, 4)
	require.InDelta(t, 3.0, counts[3].Y, 0.001)
	require.InDelta(t, 0.05, counts[3].X, 0.001)

	require.Equal(t, counts, s.History(0))
	require.Nil(t, s.History(5))
}

// TestSession_HistoryAcrossFlush combines the spilled records with the in-memory tail.
func TestSession_HistoryAcrossFlush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t, measurement.DomainTemp, t.TempDir(), 3)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Minute})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)

	for i := range 5 {
		s.Tick(ctx, t0.Add(time.Duration(i)*time.Minute), measurement.Snapshot{ProbeTemp: float64(i * 10)})
	}

	history := s.History(0)
	require.Len(t, history, 5)

	for i, p := range history {
		require.InDelta(t, float64(i), p.X, 0.001)
		require.InDelta(t, float64(i*10), p.Y, 0.001)
	}

	require.True(t, s.Running())
}

// TestSession_RestartFlushesAndUsesNewFiles checks that a second start drains the first run.
func TestSession_RestartFlushesAndUsesNewFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s := newTestSession(t, measurement.DomainIV, dir, 25)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Second, DurationLimit: time.Minute})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)
	s.Tick(ctx, t0, ivSnapshot(1))
	s.Tick(ctx, t0.Add(time.Second), ivSnapshot(2))

	firstRun := s.Status().RunID

	s.Start(ctx, t0.Add(2*time.Second), wall)
	require.True(t, s.Running())
	require.NotEqual(t, firstRun, s.Status().RunID)
	require.Equal(t, 0, s.Status().Samples)

	first := results.NewStore(filepath.Join(dir, "ivCurrent_2024-06-01_09-30-00.csv"), 2).ReadAll()
	require.Len(t, first, 2)

	require.Equal(t, "ivCurrent_2024-06-01_09-30-00_2.csv", filepath.Base(s.Status().Files[0]))
}

// TestSession_StorageFailureKeepsPoints verifies a missing directory degrades to in-memory logging.
func TestSession_StorageFailureKeepsPoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "card")
	s := newTestSession(t, measurement.DomainIV, dir, 2)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Second})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)
	require.Error(t, s.LastError())

	s.Tick(ctx, t0, ivSnapshot(1))
	result := s.Tick(ctx, t0.Add(time.Second), ivSnapshot(2))
	require.True(t, result.Logged)
	require.False(t, result.Flushed)

	status := s.Status()
	require.Equal(t, 2, status.Buffered)
	require.Equal(t, 3, status.FlushFailures)
	require.NotEmpty(t, status.LastError)

	// The medium comes back: the next tick spills before appending.
	require.NoError(t, os.MkdirAll(dir, 0o750))

	result = s.Tick(ctx, t0.Add(2*time.Second), ivSnapshot(3))
	require.True(t, result.Logged)
	require.True(t, result.Flushed)

	require.NoError(t, s.Stop(ctx))

	current := results.NewStore(s.Status().Files[0], 2).ReadAll()
	require.Len(t, current, 3)
	require.InDelta(t, 3.0, current[2].Y, 0.001)
}

// TestSession_NoDurationLimit keeps running when the limit is zero.
func TestSession_NoDurationLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t, measurement.DomainAD, t.TempDir(), 25)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Hour})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)

	result := s.Tick(ctx, t0.Add(100*time.Hour), measurement.Snapshot{})
	require.False(t, result.Stopped)
	require.True(t, s.Running())
}

// TestSession_ExpireWithoutReading stops at the limit without recording a point.
func TestSession_ExpireWithoutReading(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t, measurement.DomainIV, t.TempDir(), 25)
	s.SetLimits(measurement.SessionLimits{SampleInterval: time.Minute, DurationLimit: 2 * time.Minute})

	t0 := time.Unix(0, 0)
	s.Start(ctx, t0, wall)
	s.Tick(ctx, t0, ivSnapshot(1))

	require.Equal(t, TickResult{}, s.Expire(ctx, t0.Add(time.Minute)))
	require.True(t, s.Running())

	require.Equal(t, TickResult{Stopped: true}, s.Expire(ctx, t0.Add(3*time.Minute)))
	require.False(t, s.Running())
	require.Len(t, s.History(0), 1)

	require.Equal(t, TickResult{}, s.Expire(ctx, t0.Add(4*time.Minute)))
}
