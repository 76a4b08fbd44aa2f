package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/sensors"
)

// commandKind names an operator command.
type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdSetField
	cmdClearCount
)

// command is an operator request applied at the start of the next tick.
type command struct {
	// kind selects the action.
	kind commandKind
	// domain is the target of start and stop.
	domain measurement.Domain
	// screen, field and value describe a field update.
	screen, field, value string
	// reply receives the outcome.
	reply chan error
}

var (
	// ErrNotLoggable is returned when a session is requested for a domain without quantities.
	ErrNotLoggable = errors.New("domain has no logged quantities")
	// ErrBusy is returned when the command queue is full.
	ErrBusy = errors.New("command queue is full")
	// ErrStopped is returned for commands submitted after the loop ended.
	ErrStopped = errors.New("engine stopped")
	// errNoCounter is returned when the source has no edge counter to clear.
	errNoCounter = errors.New("source does not count edges")
)

// StartSession starts or restarts the session of an input domain.
func (e *Engine) StartSession(ctx context.Context, d measurement.Domain) error {
	if !d.IsInput() {
		return fmt.Errorf("%w: %s", ErrNotLoggable, d)
	}

	return e.do(ctx, command{kind: cmdStart, domain: d})
}

// StopSession stops the session of an input domain. Stopping an idle session succeeds.
func (e *Engine) StopSession(ctx context.Context, d measurement.Domain) error {
	if !d.IsInput() {
		return fmt.Errorf("%w: %s", ErrNotLoggable, d)
	}

	return e.do(ctx, command{kind: cmdStop, domain: d})
}

// SetField validates and stores one panel field.
func (e *Engine) SetField(ctx context.Context, screen, field, value string) error {
	if err := display.ValidateField(screen, field, value); err != nil {
		return err
	}

	return e.do(ctx, command{kind: cmdSetField, screen: screen, field: field, value: value})
}

// ClearCount resets the digital input edge counter.
func (e *Engine) ClearCount(ctx context.Context) error {
	return e.do(ctx, command{kind: cmdClearCount})
}

// do queues a command and waits for the tick that applies it.
func (e *Engine) do(ctx context.Context, cmd command) error {
	reply, err := e.submit(cmd)
	if err != nil {
		return err
	}

	select {
	case err = <-reply:
		return err
	case <-e.done:
		// A command queued after the final drain is never applied.
		select {
		case err = <-reply:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit queues a command without waiting.
func (e *Engine) submit(cmd command) (<-chan error, error) {
	cmd.reply = make(chan error, 1)

	select {
	case <-e.done:
		return nil, ErrStopped
	default:
	}

	select {
	case e.commands <- cmd:
		return cmd.reply, nil
	default:
		return nil, ErrBusy
	}
}

// outcome pairs a command's reply channel with its result.
type outcome struct {
	reply chan error
	err   error
}

// applyCommands runs every queued command. Replies are sent by the caller
// once the tick's status is published.
func (e *Engine) applyCommands(ctx context.Context, f *Frame) []outcome {
	var outcomes []outcome

	for {
		select {
		case cmd := <-e.commands:
			outcomes = append(outcomes, outcome{reply: cmd.reply, err: e.apply(ctx, f, cmd)})
		default:
			return outcomes
		}
	}
}

// apply runs one command.
func (e *Engine) apply(ctx context.Context, f *Frame, cmd command) error {
	switch cmd.kind {
	case cmdStart:
		return e.startSession(ctx, f, cmd.domain)
	case cmdStop:
		return e.sessions[cmd.domain].Stop(ctx)
	case cmdSetField:
		e.opts.Panel.SetConfigValue(cmd.screen, cmd.field, cmd.value)
		e.persistPanel(ctx)

		return nil
	case cmdClearCount:
		resetter, ok := e.opts.Source.(sensors.CountResetter)
		if !ok {
			return errNoCounter
		}

		resetter.ResetCount()

		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

// failPending answers queued commands once the loop has ended.
func (e *Engine) failPending() {
	for {
		select {
		case cmd := <-e.commands:
			cmd.reply <- ErrStopped
		default:
			return
		}
	}
}
