package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/repository/panel"
	"github.com/oshokin/datalogger/internal/sensors"
)

// TestResolveListenAddress covers override, configured and invalid addresses.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("127.0.0.1:7311", "")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7311", addr)

	addr, err = resolveListenAddress("127.0.0.1:7311", ":9090")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestLoadSettings_MissingExplicitFile checks that only the default file may be absent.
func TestLoadSettings_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := loadSettings(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestLoadPanel_RestoresSavedFields checks saved fields override the factory settings.
func TestLoadPanel_RestoresSavedFields(t *testing.T) {
	t.Parallel()

	repo := panel.NewFileRepository(filepath.Join(t.TempDir(), "panel.json"))

	memory := loadPanel(context.Background(), repo)
	require.Equal(t, "20", memory.GetConfigValue(display.ScreenAD, display.FieldLimit1))

	require.NoError(t, repo.Save(context.Background(), map[string]string{
		display.Key(display.ScreenAD, display.FieldLimit1): "3",
	}))

	memory = loadPanel(context.Background(), repo)
	require.Equal(t, "3", memory.GetConfigValue(display.ScreenAD, display.FieldLimit1))
	require.Equal(t, "24", memory.GetConfigValue(display.ScreenAD, display.FieldLimit2))
}

// TestOpenHardware_Mock checks the mock source is paired with a dry-run actuator.
func TestOpenHardware_Mock(t *testing.T) {
	t.Parallel()

	hw, err := openHardware(context.Background(), config.Default(), clock.Real{})
	require.NoError(t, err)
	require.IsType(t, new(sensors.Mock), hw.source)
	require.NoError(t, hw.actuator.SetRelay(true))
	require.NoError(t, hw.Close())
}

// TestRun_StartsAndStops runs the whole daemon on an ephemeral port until the context ends.
func TestRun_StartsAndStops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "settings.yaml")

	settings := &config.Config{
		Storage: config.Storage{Dir: filepath.Join(dir, "results")},
	}
	require.NoError(t, config.Save(configPath, settings))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := Run(ctx, &Options{
		ConfigPath:    configPath,
		ListenAddress: "127.0.0.1:0",
		PanelFile:     filepath.Join(dir, "panel.json"),
		AllowMultiple: true,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "results"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
