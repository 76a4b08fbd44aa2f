package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"google.golang.org/grpc"

	api "github.com/oshokin/datalogger/internal/api/grpc/logger"
	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/hardware"
	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/repository/panel"
	"github.com/oshokin/datalogger/internal/sensors"
	"github.com/oshokin/datalogger/internal/service/actuation"
	"github.com/oshokin/datalogger/internal/service/common"
	"github.com/oshokin/datalogger/internal/service/engine"
	"github.com/oshokin/datalogger/internal/service/session"
	"github.com/oshokin/datalogger/internal/version"
)

// Options controls the datalogger process.
type Options struct {
	// ConfigPath specifies the path to the settings file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// PanelFile overrides the file persisting operator fields.
	PanelFile string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

const (
	// storageDirPermissions is the mode of a created record directory.
	storageDirPermissions = 0o755
)

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the poll loop and the gRPC server and blocks until ctx is canceled.
// Buffered points of running sessions are written before it returns.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "datalogger")

	settings, err := loadSettings(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	if !logger.Configure(settings.LogLevel) {
		logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", settings.LogLevel)
	}

	logger.InfoKV(ctx, "Starting data logger", version.LogFields()...)

	if !opts.AllowMultiple {
		if err = common.EnsureSingleInstance(); err != nil {
			return err
		}
	}

	if err = os.MkdirAll(settings.Storage.Dir, storageDirPermissions); err != nil {
		// Sessions degrade to in-memory logging when the directory stays unusable.
		logger.WarnKV(ctx, "Record directory unavailable", "dir", settings.Storage.Dir, "error", err)
	}

	panelFile := settings.PanelFile
	if opts.PanelFile != "" {
		panelFile = opts.PanelFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	realClock := clock.Real{}

	hw, err := openHardware(ctx, settings, realClock)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := hw.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close sensor bridge", "error", closeErr)
		}
	}()

	repo := panel.NewFileRepository(panelFile)

	policy, err := actuation.ParsePolicy(settings.Outputs.ConflictPolicy)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		Clock:      realClock,
		Source:     sensors.NewThrottle(hw.source, realClock, settings.Sensors.MinConversionDelay.Std()),
		Panel:      loadPanel(ctx, repo),
		Actuator:   hw.actuator,
		Repository: repo,
		Session: session.Options{
			Dir:       settings.Storage.Dir,
			Capacity:  settings.Storage.BufferPoints,
			Precision: settings.Storage.Precision,
		},
		Arbiter: actuation.Options{
			Channel: settings.Outputs.PwmChannel,
			Policy:  policy,
		},
		PollInterval: settings.PollInterval.Std(),
	})
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}

	return serve(ctx, eng, listenAddress, settings)
}

// serve runs the engine and the gRPC server until ctx is canceled or either fails.
func serve(ctx context.Context, eng *engine.Engine, listenAddress string, settings *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterLoggerServiceServer(grpcServer, api.NewServer(eng))

	logger.InfoKV(ctx, "Data logger listening",
		"listen_address", listenAddress,
		"storage_dir", settings.Storage.Dir,
		"sensor_source", settings.Sensors.Source,
		"output_driver", settings.Outputs.Driver,
		"conflict_policy", settings.Outputs.ConflictPolicy,
	)

	engineDone := make(chan error, 1)

	go func() {
		engineDone <- eng.Run(ctx)

		// A finished loop leaves nothing to serve.
		cancel()
	}()

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	serveErr := grpcServer.Serve(lis)
	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		cancel()

		serveErr = fmt.Errorf("serve gRPC: %w", serveErr)
	} else {
		serveErr = nil
	}

	<-done

	engineErr := <-engineDone
	if engineErr != nil {
		engineErr = fmt.Errorf("stop sessions: %w", engineErr)
	}

	logger.Info(ctx, "Data logger stopped")

	return errors.Join(serveErr, engineErr)
}

// loadSettings reads the settings file. A missing default file means factory settings.
func loadSettings(ctx context.Context, path string) (*config.Config, error) {
	settings, defaulted, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if defaulted {
		logger.InfoKV(ctx, "Settings file not found, using defaults", "path", config.DefaultConfigFilename)
	}

	return settings, nil
}

// loadPanel restores persisted operator fields over the factory settings.
func loadPanel(ctx context.Context, repo panel.Repository) *display.Memory {
	memory := display.NewMemory()

	values, err := repo.Load(ctx)

	switch {
	case err == nil:
		memory.Load(values)
		logger.InfoKV(ctx, "Panel fields restored", "fields", len(values))
	case errors.Is(err, panel.ErrNotFound):
		logger.Info(ctx, "No saved panel fields, using factory settings")
	default:
		logger.WarnKV(ctx, "Failed to restore panel fields, using factory settings", "error", err)
	}

	if _, err = display.ReadControls(memory); err != nil {
		logger.WarnKV(ctx, "Restored panel fields contain invalid values", "error", err)
	}

	return memory
}

// hardwareSet bundles the sensor source, the actuator and what must be closed on exit.
type hardwareSet struct {
	// source provides raw snapshots.
	source sensors.Source
	// actuator drives the outputs.
	actuator hardware.Actuator
	// closer releases the bridge, if any.
	closer io.Closer
}

// Close releases the bridge.
func (h *hardwareSet) Close() error {
	if h.closer == nil {
		return nil
	}

	return h.closer.Close()
}

// openHardware builds the source and actuator selected by the settings.
func openHardware(ctx context.Context, settings *config.Config, c clock.Clock) (*hardwareSet, error) {
	set := new(hardwareSet)

	var bridge *sensors.Serial

	switch settings.Sensors.Source {
	case config.SourceSerial:
		var err error

		bridge, err = sensors.OpenSerial(ctx, settings.Sensors.Port, settings.Sensors.BaudRate, c)
		if err != nil {
			return nil, err
		}

		set.source = bridge
		set.closer = bridge
	default:
		set.source = sensors.NewMock(c, sensors.MockConfig{})
	}

	if settings.Outputs.Driver == config.DriverSerial && bridge != nil {
		set.actuator = hardware.NewLogging(ctx, bridge)
	} else {
		// Dry run.
		set.actuator = hardware.NewLogging(ctx, nil)
	}

	return set, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise the configured address is used as is.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
