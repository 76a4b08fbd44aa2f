package channel

import (
	"errors"
	"fmt"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// DefaultCapacity is the number of points buffered per quantity.
const DefaultCapacity = 25

// minCapacity keeps room for the carried-over point plus one new point.
const minCapacity = 2

// ErrCapacity is returned for rings smaller than two points.
var ErrCapacity = errors.New("ring capacity must be at least 2")

// Sink receives spilled points.
type Sink interface {
	Append(points []measurement.Point) error
}

// Ring is the circular buffer of one (x, y) series.
type Ring struct {
	// points is the backing array of length capacity.
	points []measurement.Point
	// idx is the next write position, in [0, capacity].
	idx int
	// spilled is set once the ring has written to its sink.
	spilled bool
}

// New allocates a ring with the given capacity.
func New(capacity int) (*Ring, error) {
	if capacity < minCapacity {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}

	return &Ring{
		points: make([]measurement.Point, capacity),
	}, nil
}

// Capacity returns the maximum number of buffered points.
func (r *Ring) Capacity() int {
	return len(r.points)
}

// Len returns the number of buffered points.
func (r *Ring) Len() int {
	return r.idx
}

// Full reports whether the next Append would have to clamp.
func (r *Ring) Full() bool {
	return r.idx >= len(r.points)
}

// Spilled reports whether the ring has written to its sink since the last Reset.
func (r *Ring) Spilled() bool {
	return r.spilled
}

// Reset empties the ring and clears the spilled flag.
func (r *Ring) Reset() {
	r.idx = 0
	r.spilled = false
}

// Seed writes (0, value) when the ring is empty and has never spilled.
func (r *Ring) Seed(value float64) bool {
	if r.idx != 0 || r.spilled {
		return false
	}

	r.points[0] = measurement.Point{X: 0, Y: value}
	r.idx = 1

	return true
}

// Append writes a point at the cursor. On a full ring the last slot is
// overwritten instead and clamped is true; callers flush before that happens.
func (r *Ring) Append(x, y float64) (clamped bool) {
	p := measurement.Point{X: x, Y: y}

	if r.Full() {
		r.points[len(r.points)-1] = p

		return true
	}

	r.points[r.idx] = p
	r.idx++

	return false
}

// FlushAndReset spills every point but the newest, moves the newest to index 0
// and sets the cursor to 1. When the sink fails nothing changes.
func (r *Ring) FlushAndReset(sink Sink) error {
	if r.idx == 0 {
		return nil
	}

	if err := sink.Append(r.snapshot(r.idx - 1)); err != nil {
		return err
	}

	r.points[0] = r.points[r.idx-1]
	r.idx = 1
	r.spilled = true

	return nil
}

// Drain spills every buffered point and empties the ring. Used when a session stops.
// When the sink fails nothing changes.
func (r *Ring) Drain(sink Sink) error {
	if r.idx > 0 {
		if err := sink.Append(r.snapshot(r.idx)); err != nil {
			return err
		}
	}

	r.idx = 0
	r.spilled = true

	return nil
}

// LastTwo returns the two most recent points for incremental drawing.
func (r *Ring) LastTwo() (prev, last measurement.Point, ok bool) {
	if r.idx < minCapacity {
		return measurement.Point{}, measurement.Point{}, false
	}

	return r.points[r.idx-2], r.points[r.idx-1], true
}

// Points returns a copy of the buffered points.
func (r *Ring) Points() []measurement.Point {
	return r.snapshot(r.idx)
}

// snapshot copies the first n points.
func (r *Ring) snapshot(n int) []measurement.Point {
	out := make([]measurement.Point, n)
	copy(out, r.points[:n])

	return out
}
