package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/datalogger/internal/channel"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/repository/results"
	"github.com/oshokin/datalogger/internal/sensors"
)

// State is the lifecycle state of a session.
type State int

const (
	// StateIdle means no accumulation.
	StateIdle State = iota
	// StateRunning means the session logs samples every interval.
	StateRunning
)

// String returns "idle" or "running".
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}

	return "idle"
}

// Options configure a session.
type Options struct {
	// Dir is the directory receiving record files.
	Dir string
	// Capacity is the number of buffered points per quantity.
	Capacity int
	// Precision is the number of decimals written per value.
	Precision int
}

// TickResult reports what a tick did.
type TickResult struct {
	// Seeded is true when the channels received their x=0 point.
	Seeded bool
	// Logged is true when a sample was appended.
	Logged bool
	// Flushed is true when at least one channel spilled to its record file.
	Flushed bool
	// Stopped is true when the duration limit ended the session.
	Stopped bool
}

// Status is a read-only view of a session for the display and the API.
type Status struct {
	// Domain is the monitored domain.
	Domain measurement.Domain
	// State is the lifecycle state.
	State State
	// RunID identifies the current or last run.
	RunID string
	// Elapsed is the time since start as of the last tick.
	Elapsed time.Duration
	// Samples is the number of points logged per quantity, seed included.
	Samples int
	// Buffered is the number of points held in memory per quantity.
	Buffered int
	// Flushes is the number of successful channel spills.
	Flushes int
	// FlushFailures is the number of failed spills.
	FlushFailures int
	// Files are the record files of the current or last run.
	Files []string
	// LastError is the label of the last storage failure.
	LastError string
}

// Session is the monitoring state machine of one domain.
type Session struct {
	// feed selects the logged quantities.
	feed sensors.Feed
	// opts holds storage settings.
	opts Options
	// state is the lifecycle state.
	state State
	// runID identifies the current run in logs.
	runID string
	// startTime is the monotonic start reading.
	startTime time.Time
	// lastLogTime is when the last sample was appended.
	lastLogTime time.Time
	// limits are the cadence settings.
	limits measurement.SessionLimits
	// elapsed is the time since start as of the last tick.
	elapsed time.Duration
	// channels buffer one quantity each, advanced in lock step.
	channels []*channel.Ring
	// stores persist one quantity each.
	stores []*results.Store
	// samples counts logged points per quantity.
	samples int
	// flushes counts successful spills.
	flushes int
	// flushFailures counts failed spills.
	flushFailures int
	// lastErr is the last storage failure.
	lastErr error
}

// New creates an idle session for the feed's domain.
func New(feed sensors.Feed, opts Options) (*Session, error) {
	if opts.Capacity == 0 {
		opts.Capacity = channel.DefaultCapacity
	}

	quantities := feed.Quantities()
	channels := make([]*channel.Ring, 0, len(quantities))

	for range quantities {
		ring, err := channel.New(opts.Capacity)
		if err != nil {
			return nil, fmt.Errorf("create %s channel: %w", feed.Domain(), err)
		}

		channels = append(channels, ring)
	}

	return &Session{
		feed:     feed,
		opts:     opts,
		channels: channels,
	}, nil
}

// Domain returns the monitored domain.
func (s *Session) Domain() measurement.Domain {
	return s.feed.Domain()
}

// Running reports whether the session is Running.
func (s *Session) Running() bool {
	return s.state == StateRunning
}

// SetLimits updates the cadence settings. They apply from the next tick.
func (s *Session) SetLimits(limits measurement.SessionLimits) {
	s.limits = limits
}

// Start assigns new record files and begins logging. A running session is
// stopped first so its buffered points reach their files.
// now is the monotonic reading, wall names the record files.
func (s *Session) Start(ctx context.Context, now, wall time.Time) {
	if s.state == StateRunning {
		logger.InfoKV(ctx, "Restarting running session", "domain", s.Domain(), "run_id", s.runID)
		_ = s.Stop(ctx)
	}

	stores, err := results.OpenSession(s.opts.Dir, s.feed.Quantities(), wall, s.opts.Precision)
	if err != nil {
		s.lastErr = err
		logger.WarnKV(ctx, "Record files unavailable, logging in memory only", "domain", s.Domain(), "error", err)
	} else {
		s.lastErr = nil
	}

	for _, ring := range s.channels {
		ring.Reset()
	}

	s.stores = stores
	s.state = StateRunning
	s.runID = uuid.NewString()
	s.startTime = now
	s.lastLogTime = now
	s.elapsed = 0
	s.samples = 0
	s.flushes = 0
	s.flushFailures = 0

	logger.InfoKV(ctx, "Session started",
		"domain", s.Domain(),
		"run_id", s.runID,
		"interval", s.limits.SampleInterval.String(),
		"duration", s.limits.DurationLimit.String(),
	)
}

// Tick advances a running session with the latest snapshot.
// A non-positive duration limit means the session runs until stopped.
func (s *Session) Tick(ctx context.Context, now time.Time, snapshot measurement.Snapshot) TickResult {
	var result TickResult

	if s.state != StateRunning {
		return result
	}

	values := s.feed.Values(snapshot)

	for i, ring := range s.channels {
		if ring.Seed(values[i]) {
			result.Seeded = true
		}
	}

	if result.Seeded {
		s.samples++
	}

	if s.expire(ctx, now) {
		result.Stopped = true

		return result
	}

	if now.Sub(s.lastLogTime) >= s.limits.SampleInterval {
		x := s.elapsed.Minutes()

		for i, ring := range s.channels {
			// A failed spill leaves the ring full; retry before overwriting its last slot.
			if ring.Full() {
				s.flush(ctx, i)
			}

			ring.Append(x, values[i])
		}

		s.lastLogTime = now
		s.samples++
		result.Logged = true
	}

	for i, ring := range s.channels {
		if ring.Full() && s.flush(ctx, i) {
			result.Flushed = true
		}
	}

	return result
}

// Expire stops a running session whose duration limit has passed, without taking a sample.
// It keeps the limit enforced while the sensors cannot be read.
func (s *Session) Expire(ctx context.Context, now time.Time) TickResult {
	var result TickResult

	if s.state == StateRunning && s.expire(ctx, now) {
		result.Stopped = true
	}

	return result
}

// expire updates the elapsed time and stops the session once it exceeds a positive limit.
func (s *Session) expire(ctx context.Context, now time.Time) bool {
	s.elapsed = max(now.Sub(s.startTime), 0)

	if s.limits.DurationLimit <= 0 || s.elapsed <= s.limits.DurationLimit {
		return false
	}

	_ = s.Stop(ctx)

	return true
}

// Stop drains every channel to its record file and goes Idle. Stopping an idle session does nothing.
func (s *Session) Stop(ctx context.Context) error {
	if s.state != StateRunning {
		return nil
	}

	var errs []error

	for i, ring := range s.channels {
		if i >= len(s.stores) {
			break
		}

		if err := ring.Drain(s.stores[i]); err != nil {
			s.flushFailures++
			errs = append(errs, err)
		}
	}

	s.state = StateIdle

	err := errors.Join(errs...)
	if err != nil {
		s.lastErr = err
		logger.WarnKV(ctx, "Session stopped with unsaved points", "domain", s.Domain(), "run_id", s.runID, "error", err)
	} else {
		logger.InfoKV(ctx, "Session stopped",
			"domain", s.Domain(),
			"run_id", s.runID,
			"samples", s.samples,
			"elapsed", s.elapsed.String(),
		)
	}

	return err
}

// History returns every point of a quantity logged by the current or last run:
// the record file followed by the points still in memory.
func (s *Session) History(quantity int) []measurement.Point {
	if quantity < 0 || quantity >= len(s.channels) {
		return nil
	}

	var points []measurement.Point
	if quantity < len(s.stores) {
		points = s.stores[quantity].ReadAll()
	}

	return append(points, s.channels[quantity].Points()...)
}

// LastTwo returns the newest segment of a quantity for incremental drawing.
func (s *Session) LastTwo(quantity int) (prev, last measurement.Point, ok bool) {
	if quantity < 0 || quantity >= len(s.channels) {
		return measurement.Point{}, measurement.Point{}, false
	}

	return s.channels[quantity].LastTwo()
}

// LastError returns the last storage failure, or nil.
func (s *Session) LastError() error {
	return s.lastErr
}

// Status returns a copy of the session's observable state.
func (s *Session) Status() Status {
	status := Status{
		Domain:        s.Domain(),
		State:         s.state,
		RunID:         s.runID,
		Elapsed:       s.elapsed,
		Samples:       s.samples,
		Flushes:       s.flushes,
		FlushFailures: s.flushFailures,
		Files:         make([]string, 0, len(s.stores)),
	}

	if len(s.channels) > 0 {
		status.Buffered = s.channels[0].Len()
	}

	for _, store := range s.stores {
		status.Files = append(status.Files, store.Path())
	}

	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}

	return status
}

// flush spills one full channel and reports success. Failures keep the points buffered.
func (s *Session) flush(ctx context.Context, i int) bool {
	if i >= len(s.stores) {
		return false
	}

	if err := s.channels[i].FlushAndReset(s.stores[i]); err != nil {
		s.flushFailures++
		s.lastErr = err
		logger.WarnKV(ctx, "Flush skipped, points kept in memory",
			"domain", s.Domain(),
			"run_id", s.runID,
			"file", s.stores[i].Path(),
			"error", err,
		)

		return false
	}

	s.flushes++

	return true
}
