package sensors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/logger"
)

const (
	// DefaultBaudRate is the bridge's default serial speed.
	DefaultBaudRate = 115200

	// lineFields is the number of comma-separated values per bridge line.
	lineFields = 8
)

var (
	// errInvalidLine is returned for bridge lines that cannot be parsed.
	errInvalidLine = errors.New("invalid bridge line")
	// errBridgeClosed is returned when writing to a closed bridge.
	errBridgeClosed = errors.New("bridge is closed")
)

// Serial talks to the microcontroller bridge that owns the sensor peripherals and the outputs.
//
// The bridge streams one line per conversion:
//
//	din_level,ain_v,current_ma,load_v,power_mw,probe_temp,module_temp,humidity
//
// and accepts one command per line: "R<0|1>" for the relay, "D<0|1>" for the
// digital level, "P<channel>,<hz>,<duty>" for PWM and "X<channel>" to detach PWM.
type Serial struct {
	// conn is the open serial port.
	conn io.ReadWriteCloser
	// clock stamps every snapshot.
	clock clock.Clock
	// mu guards latest, hasData, counter and closed.
	mu sync.RWMutex
	// latest is the newest parsed snapshot.
	latest measurement.Snapshot
	// hasData reports whether latest holds a value.
	hasData bool
	// counter counts falling edges of the digital input.
	counter edgeCounter
	// closed is set once Close has been called.
	closed bool
	// writeMu serialises commands.
	writeMu sync.Mutex
	// done is closed when the read loop exits.
	done chan struct{}
}

// Ports returns the names of the serial ports present on this machine.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	return ports, nil
}

// OpenSerial opens the port and starts reading bridge lines until ctx is done or Close is called.
func OpenSerial(ctx context.Context, portName string, baudRate int, c clock.Clock) (*Serial, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	if err = port.ResetInputBuffer(); err != nil {
		logger.WarnKV(ctx, "Failed to reset serial input buffer", "port", portName, "error", err)
	}

	return newSerial(logger.WithKV(ctx, "port", portName), port, c), nil
}

// newSerial wraps an already open connection.
func newSerial(ctx context.Context, conn io.ReadWriteCloser, c clock.Clock) *Serial {
	s := &Serial{
		conn:  conn,
		clock: c,
		done:  make(chan struct{}),
	}

	go s.readLoop(ctx)

	return s
}

// Read returns the newest snapshot received from the bridge.
func (s *Serial) Read(_ context.Context) (measurement.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasData {
		return measurement.Snapshot{}, ErrNoData
	}

	return s.latest, nil
}

// ResetCount clears the digital input counter.
func (s *Serial) ResetCount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter.reset()
	s.latest.DinCount = 0
}

// SetRelay switches the relay.
func (s *Serial) SetRelay(on bool) error {
	return s.command("R" + bit(on))
}

// SetDigitalLevel drives the digital output to a fixed level.
func (s *Serial) SetDigitalLevel(high bool) error {
	return s.command("D" + bit(high))
}

// SetPwm drives a PWM channel.
func (s *Serial) SetPwm(channel, frequencyHz int, duty float64) error {
	return s.command(fmt.Sprintf("P%d,%d,%s", channel, frequencyHz, strconv.FormatFloat(duty, 'f', 1, 64)))
}

// DetachPwm stops driving a PWM channel.
func (s *Serial) DetachPwm(channel int) error {
	return s.command("X" + strconv.Itoa(channel))
}

// Close closes the port and waits for the read loop to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close()
	<-s.done

	return err
}

// command writes one command line to the bridge.
func (s *Serial) command(cmd string) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return errBridgeClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := io.WriteString(s.conn, cmd+"\n"); err != nil {
		return fmt.Errorf("write bridge command %q: %w", cmd, err)
	}

	return nil
}

// readLoop parses bridge lines into the latest snapshot.
func (s *Serial) readLoop(ctx context.Context) {
	defer close(s.done)

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		snapshot, level, err := parseLine(line)
		if err != nil {
			logger.WarnKV(ctx, "Skipping bridge line", "line", line, "error", err)

			continue
		}

		s.mu.Lock()
		snapshot.DinCount = s.counter.observe(level)
		snapshot.Time = s.clock.Now()
		s.latest = snapshot
		s.hasData = true
		s.mu.Unlock()
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.mu.RLock()
		closed := s.closed
		s.mu.RUnlock()

		if !closed {
			logger.ErrorKV(ctx, "Bridge read failed", "error", err)
		}
	}
}

// parseLine decodes one bridge line.
func parseLine(line string) (measurement.Snapshot, bool, error) {
	parts := strings.Split(line, ",")
	if len(parts) != lineFields {
		return measurement.Snapshot{}, false,
			fmt.Errorf("%w: expected %d values, got %d", errInvalidLine, lineFields, len(parts))
	}

	var values [lineFields]float64

	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return measurement.Snapshot{}, false, fmt.Errorf("%w: field %d: %v", errInvalidLine, i, err)
		}

		values[i] = v
	}

	level := values[0] != 0

	return measurement.Snapshot{
		DinLevel:       level,
		AinVoltage:     values[1],
		CurrentMA:      values[2],
		LoadVoltage:    values[3],
		PowerMW:        values[4],
		ProbeTemp:      values[5],
		ModuleTemp:     values[6],
		ModuleHumidity: values[7],
	}, level, nil
}

// bit renders a boolean as "1" or "0".
func bit(v bool) string {
	if v {
		return "1"
	}

	return "0"
}
