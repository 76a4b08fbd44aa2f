package sensors

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// MockConfig shapes the synthetic signals.
type MockConfig struct {
	// Period is the period of the slow sine waves.
	Period time.Duration
	// TogglePeriod is how often the digital input changes level.
	TogglePeriod time.Duration
}

// Mock produces deterministic synthetic readings derived from the clock.
type Mock struct {
	// cfg shapes the signals.
	cfg MockConfig
	// clock provides the current time.
	clock clock.Clock
	// start is the reference time of the waveforms.
	start time.Time
	// mu guards counter.
	mu sync.Mutex
	// counter counts falling edges of the synthetic digital input.
	counter edgeCounter
}

// NewMock creates a mock source whose waveforms start now.
func NewMock(c clock.Clock, cfg MockConfig) *Mock {
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}

	if cfg.TogglePeriod <= 0 {
		cfg.TogglePeriod = 2 * time.Second
	}

	return &Mock{
		cfg:   cfg,
		clock: c,
		start: c.Now(),
	}
}

// Read returns the synthetic values at the current clock reading.
func (m *Mock) Read(_ context.Context) (measurement.Snapshot, error) {
	now := m.clock.Now()
	elapsed := now.Sub(m.start)
	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.Period.Seconds()
	level := (elapsed/m.cfg.TogglePeriod)%2 == 0

	m.mu.Lock()
	count := m.counter.observe(level)
	m.mu.Unlock()

	current := 5 + 4*math.Sin(phase)
	voltage := 5 + 0.5*math.Cos(phase)

	return measurement.Snapshot{
		Time:           now,
		DinLevel:       level,
		DinCount:       count,
		AinVoltage:     12 + 10*math.Sin(phase),
		CurrentMA:      current,
		LoadVoltage:    voltage,
		PowerMW:        current * voltage,
		ProbeTemp:      70 + 10*math.Sin(phase),
		ModuleTemp:     72 + 5*math.Sin(phase/2),
		ModuleHumidity: 45 + 10*math.Cos(phase),
	}, nil
}

// ResetCount clears the digital input counter.
func (m *Mock) ResetCount() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter.reset()
}
