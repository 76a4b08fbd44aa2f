package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/hardware"
	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/repository/panel"
	"github.com/oshokin/datalogger/internal/sensors"
	"github.com/oshokin/datalogger/internal/service/actuation"
	"github.com/oshokin/datalogger/internal/service/alarm"
	"github.com/oshokin/datalogger/internal/service/session"
)

const (
	// DefaultPollInterval is the default tick period.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultQueueSize is the default number of pending operator commands.
	DefaultQueueSize = 16
)

// Options wire the engine's collaborators.
type Options struct {
	// Clock provides tick times.
	Clock clock.Clock
	// Source provides sensor snapshots, usually a sensors.Throttle.
	Source sensors.Source
	// Panel holds the operator fields.
	Panel display.Panel
	// Actuator drives the relay and the digital output.
	Actuator hardware.Actuator
	// Repository persists panel fields after each update. Optional.
	Repository panel.Repository
	// Session configures record storage.
	Session session.Options
	// Arbiter configures the PWM channel and the conflict policy.
	Arbiter actuation.Options
	// PollInterval is the tick period of Run.
	PollInterval time.Duration
	// QueueSize bounds pending operator commands.
	QueueSize int
}

// valuer is implemented by panels that can export every field.
type valuer interface {
	Values() map[string]string
}

// screenSwitcher is implemented by panels that track the shown screen.
type screenSwitcher interface {
	SetCurrentScreen(d measurement.Domain)
}

// Engine runs the poll loop.
type Engine struct {
	// opts holds the collaborators.
	opts Options
	// sessions holds one session per loggable domain.
	sessions map[measurement.Domain]*session.Session
	// evaluator tracks alarm states.
	evaluator *alarm.Evaluator
	// arbiter drives the outputs.
	arbiter *actuation.Arbiter
	// commands queues operator requests for the loop.
	commands chan command
	// done is closed when Run returns.
	done chan struct{}
	// status is the last published view.
	status atomic.Pointer[Status]
	// ticks counts completed ticks.
	ticks uint64
	// lastSnapshot is the last successful reading, used while the source fails.
	lastSnapshot measurement.Snapshot
	// controlsErr is the last reported panel error label.
	controlsErr string
	// sourceErr is the last reported sensor error label.
	sourceErr string
}

var errMissingCollaborator = errors.New("engine requires a clock, a source, a panel and an actuator")

// New creates an engine with one idle session per input domain.
func New(opts Options) (*Engine, error) {
	if opts.Clock == nil || opts.Source == nil || opts.Panel == nil || opts.Actuator == nil {
		return nil, errMissingCollaborator
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	sessions := make(map[measurement.Domain]*session.Session, len(measurement.InputDomains()))

	for _, d := range measurement.InputDomains() {
		feed, err := sensors.FeedFor(d)
		if err != nil {
			return nil, err
		}

		s, err := session.New(feed, opts.Session)
		if err != nil {
			return nil, err
		}

		sessions[d] = s
	}

	e := &Engine{
		opts:      opts,
		sessions:  sessions,
		evaluator: alarm.NewEvaluator(),
		arbiter:   actuation.NewArbiter(opts.Actuator, opts.Arbiter),
		commands:  make(chan command, opts.QueueSize),
		done:      make(chan struct{}),
	}

	e.publish(&Frame{Now: opts.Clock.Now()})

	return e, nil
}

// Status returns the view of the last completed tick. The result must not be modified.
func (e *Engine) Status() *Status {
	return e.status.Load()
}

// Run ticks every poll interval until ctx is canceled, then drains every running session.
func (e *Engine) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "engine")

	logger.InfoKV(ctx, "Poll loop started", "poll_interval", e.opts.PollInterval.String())

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	e.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			close(e.done)
			e.failPending()

			// The parent context is gone; drain with a fresh one.
			err := e.Shutdown(context.WithoutCancel(ctx))

			logger.Info(ctx, "Poll loop stopped")

			return err
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Shutdown stops every running session so buffered points reach their files.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error

	for _, d := range measurement.InputDomains() {
		if err := e.sessions[d].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s session: %w", d, err))
		}
	}

	e.publish(&Frame{Now: e.opts.Clock.Now()})

	return errors.Join(errs...)
}

// Tick runs one pass of the loop and returns its frame.
func (e *Engine) Tick(ctx context.Context) *Frame {
	f := &Frame{
		Now:     e.opts.Clock.Now(),
		Results: make(map[measurement.Domain]session.TickResult, len(e.sessions)),
	}

	outcomes := e.applyCommands(ctx, f)
	defer func() {
		for _, o := range outcomes {
			o.reply <- o.err
		}
	}()

	f.Controls = e.readControls(ctx)

	snapshot, err := e.opts.Source.Read(ctx)
	e.reportSource(ctx, err)

	if err != nil {
		e.degradedTick(ctx, f, err)

		return f
	}

	snapshot.Time = f.Now
	f.Snapshot = snapshot
	e.lastSnapshot = snapshot

	e.tickSessions(f, func(s *session.Session) session.TickResult {
		return s.Tick(ctx, f.Now, snapshot)
	})

	f.Signals = e.evaluator.EvaluateAll(ctx, snapshot, &f.Controls)
	f.Decision = e.arbiter.Arbitrate(ctx, f.Signals, snapshot, &f.Controls)

	e.ticks++
	e.publish(f)

	return f
}

// degradedTick runs a tick without a reading: duration limits, the clock alarm and the
// outputs stay live, input alarms and PWM duty use the last successful reading.
func (e *Engine) degradedTick(ctx context.Context, f *Frame, err error) {
	f.SourceErr = err
	f.Snapshot = e.lastSnapshot

	e.tickSessions(f, func(s *session.Session) session.TickResult {
		return s.Expire(ctx, f.Now)
	})

	f.Signals = e.evaluator.EvaluateClockOnly(ctx, f.Now, &f.Controls)
	f.Decision = e.arbiter.Arbitrate(ctx, f.Signals, e.lastSnapshot, &f.Controls)

	e.publish(f)
}

// tickSessions advances every session with the current limits and redraws the shown one when it changed.
func (e *Engine) tickSessions(f *Frame, step func(*session.Session) session.TickResult) {
	shown := e.opts.Panel.CurrentScreenKind()

	for _, d := range measurement.InputDomains() {
		s := e.sessions[d]
		s.SetLimits(f.Controls.Session)

		result := step(s)
		f.Results[d] = result

		if d == shown && (result.Seeded || result.Logged || result.Stopped) {
			e.opts.Panel.RequestRedraw()
		}
	}
}

// startSession applies a start command with the current panel limits.
func (e *Engine) startSession(ctx context.Context, f *Frame, d measurement.Domain) error {
	s, ok := e.sessions[d]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoggable, d)
	}

	controls := e.readControls(ctx)
	s.SetLimits(controls.Session)

	// Counting restarts with every AD run.
	if d == measurement.DomainAD {
		if resetter, ok := e.opts.Source.(sensors.CountResetter); ok {
			resetter.ResetCount()
		}
	}

	s.Start(ctx, f.Now, f.Now)

	if switcher, ok := e.opts.Panel.(screenSwitcher); ok {
		switcher.SetCurrentScreen(d)
	}

	return nil
}

// readControls reads the panel and logs the error label when it changes.
func (e *Engine) readControls(ctx context.Context) measurement.Controls {
	controls, err := display.ReadControls(e.opts.Panel)

	label := ""
	if err != nil {
		label = err.Error()
	}

	if label != e.controlsErr {
		if label != "" {
			logger.WarnKV(ctx, "Panel fields read as zero", "error", label)
		} else {
			logger.Info(ctx, "Panel fields valid again")
		}

		e.controlsErr = label
	}

	return controls
}

// reportSource logs sensor failures when the label changes.
func (e *Engine) reportSource(ctx context.Context, err error) {
	label := ""
	if err != nil {
		label = err.Error()
	}

	if label == e.sourceErr {
		return
	}

	switch {
	case errors.Is(err, sensors.ErrNoData):
		logger.Debug(ctx, "Waiting for the first sensor snapshot")
	case err != nil:
		logger.WarnKV(ctx, "Sensor read failed", "error", err)
	default:
		logger.Info(ctx, "Sensor readings available")
	}

	e.sourceErr = label
}

// persistPanel saves every panel field when a repository is configured.
func (e *Engine) persistPanel(ctx context.Context) {
	if e.opts.Repository == nil {
		return
	}

	v, ok := e.opts.Panel.(valuer)
	if !ok {
		return
	}

	if err := e.opts.Repository.Save(ctx, v.Values()); err != nil {
		logger.ErrorKV(ctx, "Failed to persist panel fields", "error", err)
	}
}

// publish swaps the status view.
func (e *Engine) publish(f *Frame) {
	status := &Status{
		Time:          f.Now,
		Ticks:         e.ticks,
		Snapshot:      f.Snapshot,
		Sessions:      make([]session.Status, 0, len(e.sessions)),
		Signals:       f.Signals,
		Decision:      f.Decision,
		ControlsError: e.controlsErr,
		SourceError:   e.sourceErr,
	}

	for _, d := range measurement.InputDomains() {
		status.Sessions = append(status.Sessions, e.sessions[d].Status())
	}

	if err := e.arbiter.LastError(); err != nil {
		status.ActuatorError = err.Error()
	}

	e.status.Store(status)
}
