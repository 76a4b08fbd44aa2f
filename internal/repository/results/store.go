package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/datalogger/internal/domain/measurement"
)

const (
	// Extension is the file extension of record files.
	Extension = ".csv"

	// TimestampLayout is the session start timestamp embedded in file names.
	TimestampLayout = "2006-01-02_15-04-05"

	// DefaultPrecision is the number of decimals written per value.
	DefaultPrecision = 2

	// FilePermissions is the mode of newly created record files.
	FilePermissions = 0o644

	// maxNameAttempts bounds the suffix search when reserving a file name.
	maxNameAttempts = 1000
)

var (
	// ErrOpen wraps failures to open a record file for appending.
	ErrOpen = errors.New("open record file")
	// ErrNameExhausted is returned when no free file name could be reserved.
	ErrNameExhausted = errors.New("no free record file name")
)

// Store is the append-only record file of one quantity.
type Store struct {
	// path is the location of the record file.
	path string
	// precision is the number of decimals written per value.
	precision int
	// mu serialises appends and guards lastErr.
	mu sync.Mutex
	// lastErr is the most recent open, write or read failure.
	lastErr error
}

// NewStore returns a store bound to an existing or future record file.
func NewStore(path string, precision int) *Store {
	if precision < 0 {
		precision = DefaultPrecision
	}

	return &Store{
		path:      filepath.Clean(path),
		precision: precision,
	}
}

// Path returns the record file location.
func (s *Store) Path() string {
	return s.path
}

// Err returns the last failure seen by the store, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// Append opens the file in append mode, writes one record per point and closes it.
// Nothing is rolled back if the write is interrupted.
func (s *Store) Append(points []measurement.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(points) == 0 {
		return nil
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, FilePermissions)
	if err != nil {
		s.lastErr = fmt.Errorf("%w %s: %v", ErrOpen, s.path, err)

		return s.lastErr
	}

	w := bufio.NewWriter(file)
	for _, p := range points {
		if _, err = w.WriteString(FormatRecord(p, s.precision)); err != nil {
			break
		}
	}

	if err == nil {
		err = w.Flush()
	}

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		s.lastErr = fmt.Errorf("write record file %s: %w", s.path, err)

		return s.lastErr
	}

	s.lastErr = nil

	return nil
}

// All returns the records from the beginning of the file.
// Each iteration reopens the file, so the sequence can be ranged over repeatedly.
// It ends at the first line that is not a complete record and yields nothing for a missing file.
func (s *Store) All() iter.Seq[measurement.Point] {
	return func(yield func(measurement.Point) bool) {
		file, err := os.Open(s.path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.setErr(fmt.Errorf("read record file %s: %w", s.path, err))
			}

			return
		}

		defer func() {
			_ = file.Close()
		}()

		r := bufio.NewReader(file)

		for {
			line, readErr := r.ReadString('\n')
			// A line without its terminator is an interrupted write.
			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					s.setErr(fmt.Errorf("read record file %s: %w", s.path, readErr))
				}

				return
			}

			p, ok := ParseRecord(line)
			if !ok {
				return
			}

			if !yield(p) {
				return
			}
		}
	}
}

// ReadAll collects every complete record into a slice.
func (s *Store) ReadAll() []measurement.Point {
	var points []measurement.Point
	for p := range s.All() {
		points = append(points, p)
	}

	return points
}

// setErr records a read failure.
func (s *Store) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
}

// FormatRecord encodes one point as a record line.
func FormatRecord(p measurement.Point, precision int) string {
	return strconv.FormatFloat(p.X, 'f', precision, 64) + "," +
		strconv.FormatFloat(p.Y, 'f', precision, 64) + "\n"
}

// ParseRecord decodes one record line. It accepts an optional trailing "\r\n".
func ParseRecord(line string) (measurement.Point, bool) {
	line = strings.TrimRight(line, "\r\n")

	xs, ys, found := strings.Cut(line, ",")
	if !found {
		return measurement.Point{}, false
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return measurement.Point{}, false
	}

	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return measurement.Point{}, false
	}

	return measurement.Point{X: x, Y: y}, true
}

// FileName builds "<quantity>_<YYYY-MM-DD_hh-mm-ss>.csv" from a wall-clock start time.
func FileName(quantity string, startedAt time.Time) string {
	return quantity + "_" + startedAt.Format(TimestampLayout) + Extension
}

// Reserve creates an empty record file for a new session and returns its path.
// When the name is already taken a numeric suffix is added, so two sessions
// started within the same second never share a file.
func Reserve(dir, quantity string, startedAt time.Time) (string, error) {
	base := strings.TrimSuffix(FileName(quantity, startedAt), Extension)

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := base + Extension
		if attempt > 1 {
			name = base + "_" + strconv.Itoa(attempt) + Extension
		}

		path := filepath.Join(dir, name)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePermissions)
		if err == nil {
			return path, file.Close()
		}

		if !errors.Is(err, os.ErrExist) {
			return path, fmt.Errorf("%w %s: %v", ErrOpen, path, err)
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNameExhausted, base)
}

// OpenSession reserves one record file per quantity and returns their stores in order.
// A reservation failure still yields a store for the intended path so the
// session keeps buffering in memory; the first failure is returned alongside.
func OpenSession(dir string, quantities []string, startedAt time.Time, precision int) ([]*Store, error) {
	var (
		stores   = make([]*Store, 0, len(quantities))
		firstErr error
	)

	for _, quantity := range quantities {
		path, err := Reserve(dir, quantity, startedAt)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			if path == "" {
				path = filepath.Join(dir, FileName(quantity, startedAt))
			}
		}

		stores = append(stores, NewStore(path, precision))
	}

	return stores, firstErr
}

// List returns the record files in dir, newest name last.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, fmt.Errorf("list record files: %w", err)
	}

	sort.Strings(matches)

	return matches, nil
}
