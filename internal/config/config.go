package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/service/actuation"
)

// Config holds the settings shared by the logger daemon and its control CLI.
type Config struct {
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" toml:"log_level"`
	// ServerAddress is the gRPC status server address.
	ServerAddress string `yaml:"server_addr" toml:"server_addr"`
	// Timeout is the duration for RPC calls.
	Timeout Duration `yaml:"timeout" toml:"timeout"`
	// PollInterval is the period of the poll loop.
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`
	// PanelFile is the JSON file persisting operator field values.
	PanelFile string `yaml:"panel_file" toml:"panel_file"`
	// Storage configures record files.
	Storage Storage `yaml:"storage" toml:"storage"`
	// Sensors configures the measurement source.
	Sensors Sensors `yaml:"sensors" toml:"sensors"`
	// Outputs configures the relay and digital output driver.
	Outputs Outputs `yaml:"outputs" toml:"outputs"`
}

// Storage configures record files.
type Storage struct {
	// Dir is the directory receiving record files.
	Dir string `yaml:"dir" toml:"dir"`
	// BufferPoints is the number of points buffered per quantity before a spill.
	BufferPoints int `yaml:"buffer_points" toml:"buffer_points"`
	// Precision is the number of decimals written per value.
	Precision int `yaml:"precision" toml:"precision"`
}

// Sensors configures the measurement source.
type Sensors struct {
	// Source is "mock" or "serial".
	Source string `yaml:"source" toml:"source"`
	// Port is the serial port of the bridge.
	Port string `yaml:"port" toml:"port"`
	// BaudRate is the serial speed of the bridge.
	BaudRate int `yaml:"baud_rate" toml:"baud_rate"`
	// MinConversionDelay is the minimum time between two sensor conversions.
	MinConversionDelay Duration `yaml:"min_conversion_delay" toml:"min_conversion_delay"`
}

// Outputs configures the relay and the digital output.
type Outputs struct {
	// Driver is "log" for a dry run or "serial" to drive the bridge.
	Driver string `yaml:"driver" toml:"driver"`
	// PwmChannel is the PWM channel of the digital output.
	PwmChannel int `yaml:"pwm_channel" toml:"pwm_channel"`
	// ConflictPolicy resolves input versus clock alarm conflicts: clock-wins, alarm-wins or prefer-off.
	ConflictPolicy string `yaml:"conflict_policy" toml:"conflict_policy"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "datalogger-settings.yaml"

	// DefaultPanelFilename is the default filename for persisted operator fields.
	DefaultPanelFilename = "datalogger-panel.json"

	// DefaultServerAddress is the default gRPC status address.
	DefaultServerAddress = "127.0.0.1:7311"

	// DefaultStorageDir is the default directory for record files.
	DefaultStorageDir = "results"

	// DefaultBufferPoints is the default number of buffered points per quantity.
	DefaultBufferPoints = 25

	// DefaultPrecision is the default number of decimals per value.
	DefaultPrecision = 2

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the default poll loop period.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultBaudRate is the default serial speed of the bridge.
	DefaultBaudRate = 115200

	// DefaultMinConversionDelay is the default minimum time between sensor conversions.
	DefaultMinConversionDelay = 750 * time.Millisecond

	// SourceMock selects the synthetic source.
	SourceMock = "mock"
	// SourceSerial selects the serial bridge.
	SourceSerial = "serial"

	// DriverLog logs output changes without driving hardware.
	DriverLog = "log"
	// DriverSerial drives outputs through the serial bridge.
	DriverSerial = "serial"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// tomlExtension selects TOML encoding.
	tomlExtension = ".toml"

	// minBufferPoints leaves room for the carried-over point plus one sample.
	minBufferPoints = 2
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidSource is returned for unknown sensor sources.
	errInvalidSource = errors.New("sensor source must be mock or serial")
	// errSerialPortRequired is returned when the serial source has no port.
	errSerialPortRequired = errors.New("serial port must be provided for the serial source")
	// errInvalidDriver is returned for unknown output drivers.
	errInvalidDriver = errors.New("output driver must be log or serial")
	// errDriverNeedsSerial is returned when outputs use the bridge but sensors do not.
	errDriverNeedsSerial = errors.New("serial output driver requires the serial sensor source")
	// errInvalidBuffer is returned for buffers too small to carry a segment.
	errInvalidBuffer = errors.New("storage buffer must hold at least 2 points")
	// errInvalidLogLevel is returned for unknown log levels.
	errInvalidLogLevel = errors.New("unknown log level")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := new(Config)

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(contents, &cfg)
	} else {
		err = yaml.Unmarshal(contents, &cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing default settings file yields
// Default(). defaulted reports that case.
func LoadOrDefault(path string) (cfg *Config, defaulted bool, err error) {
	cfg, err = Load(path)
	if err == nil {
		return cfg, false, nil
	}

	if errors.Is(err, os.ErrNotExist) && (path == "" || path == DefaultConfigFilename) {
		return Default(), true, nil
	}

	return nil, false, err
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)

	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for missing values.
//
//nolint:cyclop // A flat list of checks reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
			return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.LogLevel)
		}
	}

	if settings.ServerAddress == "" {
		settings.ServerAddress = DefaultServerAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = Duration(DefaultTimeout)
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = Duration(DefaultPollInterval)
	}

	if settings.PanelFile == "" {
		settings.PanelFile = DefaultPanelFilename
	}

	if err := validateStorage(&settings.Storage); err != nil {
		return err
	}

	if err := validateSensors(&settings.Sensors); err != nil {
		return err
	}

	return validateOutputs(&settings.Outputs, settings.Sensors.Source)
}

// validateStorage fills storage defaults.
func validateStorage(s *Storage) error {
	if s.Dir == "" {
		s.Dir = DefaultStorageDir
	}

	if s.BufferPoints == 0 {
		s.BufferPoints = DefaultBufferPoints
	}

	if s.BufferPoints < minBufferPoints {
		return fmt.Errorf("%w: %d", errInvalidBuffer, s.BufferPoints)
	}

	if s.Precision <= 0 {
		s.Precision = DefaultPrecision
	}

	return nil
}

// validateSensors fills sensor defaults.
func validateSensors(s *Sensors) error {
	s.Source = strings.ToLower(strings.TrimSpace(s.Source))
	if s.Source == "" {
		s.Source = SourceMock
	}

	if !slices.Contains([]string{SourceMock, SourceSerial}, s.Source) {
		return fmt.Errorf("%w: %q", errInvalidSource, s.Source)
	}

	if s.Source == SourceSerial && s.Port == "" {
		return errSerialPortRequired
	}

	if s.BaudRate <= 0 {
		s.BaudRate = DefaultBaudRate
	}

	if s.MinConversionDelay <= 0 {
		s.MinConversionDelay = Duration(DefaultMinConversionDelay)
	}

	return nil
}

// validateOutputs fills output defaults.
func validateOutputs(o *Outputs, source string) error {
	o.Driver = strings.ToLower(strings.TrimSpace(o.Driver))
	if o.Driver == "" {
		o.Driver = DriverLog
	}

	if !slices.Contains([]string{DriverLog, DriverSerial}, o.Driver) {
		return fmt.Errorf("%w: %q", errInvalidDriver, o.Driver)
	}

	if o.Driver == DriverSerial && source != SourceSerial {
		return errDriverNeedsSerial
	}

	policy, err := actuation.ParsePolicy(o.ConflictPolicy)
	if err != nil {
		return err
	}

	o.ConflictPolicy = policy.String()

	return nil
}

// isTOML reports whether the path selects TOML encoding.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), tomlExtension)
}
