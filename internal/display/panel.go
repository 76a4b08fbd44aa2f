package display

import (
	"maps"
	"sync"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

// Panel is the collaborator interface consumed from the menu layer.
type Panel interface {
	GetConfigValue(screen, field string) string
	SetConfigValue(screen, field, value string)
	CurrentScreenKind() measurement.Domain
	RequestRedraw()
}

// Memory is a thread-safe in-process Panel used by the daemon and in tests.
type Memory struct {
	// mu guards every field.
	mu sync.RWMutex
	// values holds field labels keyed by "screen/field".
	values map[string]string
	// current is the measurement screen being shown.
	current measurement.Domain
	// redraws counts redraw requests.
	redraws int
}

// NewMemory returns a panel filled with the factory settings.
func NewMemory() *Memory {
	m := &Memory{
		values: make(map[string]string),
	}

	defaults := measurement.DefaultControls()
	WriteControls(m, &defaults)

	return m
}

// GetConfigValue returns a field label, or "" when the field was never set.
func (m *Memory) GetConfigValue(screen, field string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.values[Key(screen, field)]
}

// SetConfigValue stores a field label.
func (m *Memory) SetConfigValue(screen, field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[Key(screen, field)] = value
}

// CurrentScreenKind returns the measurement screen being shown.
func (m *Memory) CurrentScreenKind() measurement.Domain {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current
}

// SetCurrentScreen switches the shown measurement screen.
func (m *Memory) SetCurrentScreen(d measurement.Domain) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = d
}

// RequestRedraw counts a redraw request.
func (m *Memory) RequestRedraw() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redraws++
}

// Redraws returns the number of redraw requests so far.
func (m *Memory) Redraws() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.redraws
}

// Values returns a copy of every stored label keyed by "screen/field".
func (m *Memory) Values() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.values)
}

// Load merges labels keyed by "screen/field" into the panel.
func (m *Memory) Load(values map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maps.Copy(m.values, values)
}
