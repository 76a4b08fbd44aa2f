package hardware

import (
	"context"
	"fmt"
	"sync"

	"github.com/oshokin/datalogger/internal/logger"
)

// Actuator drives the physical outputs.
type Actuator interface {
	SetRelay(on bool) error
	SetDigitalLevel(high bool) error
	SetPwm(channel, frequencyHz int, duty float64) error
	DetachPwm(channel int) error
}

// Logging logs every output change and forwards it to the wrapped actuator, if any.
type Logging struct {
	// ctx carries the logger.
	ctx context.Context //nolint:containedctx // Only used to reach the scoped logger.
	// next receives the forwarded calls; nil means dry run.
	next Actuator
}

// NewLogging wraps next. A nil next logs without driving anything.
func NewLogging(ctx context.Context, next Actuator) *Logging {
	return &Logging{
		ctx:  logger.WithName(ctx, "actuator"),
		next: next,
	}
}

// SetRelay logs and forwards a relay change.
func (l *Logging) SetRelay(on bool) error {
	logger.InfoKV(l.ctx, "Relay output", "on", on)

	if l.next == nil {
		return nil
	}

	return l.next.SetRelay(on)
}

// SetDigitalLevel logs and forwards a fixed level.
func (l *Logging) SetDigitalLevel(high bool) error {
	logger.InfoKV(l.ctx, "Digital output level", "high", high)

	if l.next == nil {
		return nil
	}

	return l.next.SetDigitalLevel(high)
}

// SetPwm logs and forwards a PWM setting.
func (l *Logging) SetPwm(channel, frequencyHz int, duty float64) error {
	logger.InfoKV(l.ctx, "Digital output PWM", "channel", channel, "frequency_hz", frequencyHz, "duty", duty)

	if l.next == nil {
		return nil
	}

	return l.next.SetPwm(channel, frequencyHz, duty)
}

// DetachPwm logs and forwards a PWM detach.
func (l *Logging) DetachPwm(channel int) error {
	logger.InfoKV(l.ctx, "Digital output PWM detached", "channel", channel)

	if l.next == nil {
		return nil
	}

	return l.next.DetachPwm(channel)
}

// Call is one recorded actuator invocation.
type Call struct {
	// Op is the method name.
	Op string
	// On is the relay state or digital level.
	On bool
	// Channel is the PWM channel.
	Channel int
	// FrequencyHz is the PWM frequency.
	FrequencyHz int
	// Duty is the PWM duty cycle in percent.
	Duty float64
}

// String renders the call compactly, e.g. "SetPwm(0, 4000, 50.0)".
func (c Call) String() string {
	switch c.Op {
	case "SetRelay", "SetDigitalLevel":
		return fmt.Sprintf("%s(%t)", c.Op, c.On)
	case "SetPwm":
		return fmt.Sprintf("%s(%d, %d, %.1f)", c.Op, c.Channel, c.FrequencyHz, c.Duty)
	default:
		return fmt.Sprintf("%s(%d)", c.Op, c.Channel)
	}
}

// Recorder keeps every call in memory.
type Recorder struct {
	// mu guards calls.
	mu sync.Mutex
	// calls is the call log.
	calls []Call
	// err is returned from every call when set.
	err error
}

// FailWith makes every later call return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)

	return out
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

// SetRelay records a relay change.
func (r *Recorder) SetRelay(on bool) error {
	return r.record(Call{Op: "SetRelay", On: on})
}

// SetDigitalLevel records a fixed level.
func (r *Recorder) SetDigitalLevel(high bool) error {
	return r.record(Call{Op: "SetDigitalLevel", On: high})
}

// SetPwm records a PWM setting.
func (r *Recorder) SetPwm(channel, frequencyHz int, duty float64) error {
	return r.record(Call{Op: "SetPwm", Channel: channel, FrequencyHz: frequencyHz, Duty: duty})
}

// DetachPwm records a PWM detach.
func (r *Recorder) DetachPwm(channel int) error {
	return r.record(Call{Op: "DetachPwm", Channel: channel})
}

// record appends a call and returns the configured error.
func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, c)

	return r.err
}
