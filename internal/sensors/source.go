package sensors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// DefaultMinConversionDelay is the minimum time between two conversions of the temperature probe.
const DefaultMinConversionDelay = 750 * time.Millisecond

// ErrNoData is returned by a source that has not converted anything yet.
var ErrNoData = errors.New("no sensor data yet")

// Source returns the latest converted value of every quantity.
type Source interface {
	Read(ctx context.Context) (measurement.Snapshot, error)
}

// CountResetter is implemented by sources that count digital input edges.
type CountResetter interface {
	ResetCount()
}

// Throttle caches the wrapped source's snapshot until minDelay has passed
// since the last conversion, so the loop never reads faster than the slowest sensor.
type Throttle struct {
	// source is the wrapped source.
	source Source
	// clock provides the current time.
	clock clock.Clock
	// minDelay is the minimum time between two reads of source.
	minDelay time.Duration
	// mu guards the cached fields.
	mu sync.Mutex
	// last is the cached snapshot.
	last measurement.Snapshot
	// lastRead is when source was last read successfully.
	lastRead time.Time
	// hasLast reports whether last holds a value.
	hasLast bool
}

// NewThrottle wraps a source with a minimum conversion delay.
func NewThrottle(source Source, c clock.Clock, minDelay time.Duration) *Throttle {
	return &Throttle{
		source:   source,
		clock:    c,
		minDelay: minDelay,
	}
}

// Read returns a fresh snapshot when the delay has passed and the cached one otherwise.
func (t *Throttle) Read(ctx context.Context) (measurement.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.hasLast && now.Sub(t.lastRead) < t.minDelay {
		return t.last, nil
	}

	snapshot, err := t.source.Read(ctx)
	if err != nil {
		if t.hasLast {
			return t.last, err
		}

		return measurement.Snapshot{}, err
	}

	t.last = snapshot
	t.lastRead = now
	t.hasLast = true

	return snapshot, nil
}

// ResetCount forwards to the wrapped source and drops the cached count.
func (t *Throttle) ResetCount() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.source.(CountResetter); ok {
		r.ResetCount()
	}

	t.last.DinCount = 0
}

// edgeCounter counts falling edges of the digital input.
type edgeCounter struct {
	// level is the last seen level.
	level bool
	// seen reports whether level has been initialised.
	seen bool
	// count is the number of falling edges.
	count float64
}

// observe feeds a new level and returns the running count.
func (e *edgeCounter) observe(level bool) float64 {
	if e.seen && e.level && !level {
		e.count++
	}

	e.level = level
	e.seen = true

	return e.count
}

// reset clears the count but keeps the last level.
func (e *edgeCounter) reset() {
	e.count = 0
}
