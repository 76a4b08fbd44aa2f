package ctl

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	api "github.com/oshokin/datalogger/internal/api/grpc/logger"
	"github.com/oshokin/datalogger/internal/clock"
	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	"github.com/oshokin/datalogger/internal/hardware"
	"github.com/oshokin/datalogger/internal/sensors"
	"github.com/oshokin/datalogger/internal/service/actuation"
	"github.com/oshokin/datalogger/internal/service/alarm"
	"github.com/oshokin/datalogger/internal/service/engine"
	"github.com/oshokin/datalogger/internal/service/session"
)

// TestHistory_File prints the complete records of a file and stops at a partial one.
func TestHistory_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ainVoltage_2026-10-17_08-00-00.csv")
	require.NoError(t, os.WriteFile(path, []byte("0.00,1.50\n0.01,2.25\n0.02,3"), 0o600))

	var out bytes.Buffer
	require.NoError(t, History(&Options{Out: &out}, path))
	require.Equal(t, "0\t1.5\n0.01\t2.25\n", out.String())
}

// TestHistory_Directory lists record files in name order.
func TestHistory_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("0,0\n"), 0o600))
	}

	var out bytes.Buffer
	require.NoError(t, History(&Options{Out: &out}, dir))
	require.Equal(t, filepath.Join(dir, "a.csv")+"\n"+filepath.Join(dir, "b.csv")+"\n", out.String())
}

// TestHistory_Empty reports a file without any complete record.
func TestHistory_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	require.ErrorIs(t, History(&Options{Out: new(bytes.Buffer)}, path), errNoRecords)
}

// TestSummary renders the one-line status.
func TestSummary(t *testing.T) {
	t.Parallel()

	st, err := api.EncodeStatus(&engine.Status{
		Snapshot: measurement.Snapshot{Time: time.Date(2026, 10, 17, 8, 0, 1, 0, time.UTC)},
		Sessions: []session.Status{
			{Domain: measurement.DomainAD, State: session.StateRunning, Samples: 12},
			{Domain: measurement.DomainIV},
			{Domain: measurement.DomainTemp},
		},
		Signals: alarm.Signals{AD: true},
		Decision: actuation.Decision{
			Relay:       true,
			RelaySource: actuation.SourceAlarm,
			DigitalOut:  actuation.Output{Mode: measurement.OutputModePWM, FrequencyHz: 4000, Duty: 50},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "08:00:01 ad=running(12) iv=idle temp=idle alarms=ad relay=on(alarm) dout=PWM 50.0%", Summary(st))
}

// TestRemoteCommands runs the remote commands against a daemon-like server on a loopback port.
func TestRemoteCommands(t *testing.T) {
	t.Parallel()

	c := clock.NewManual(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	panel := display.NewMemory()

	eng, err := engine.New(engine.Options{
		Clock:        c,
		Source:       sensors.NewMock(c, sensors.MockConfig{}),
		Panel:        panel,
		Actuator:     new(hardware.Recorder),
		Session:      session.Options{Dir: t.TempDir()},
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = eng.Run(ctx)
	}()

	lis, err := new(net.ListenConfig).Listen(ctx, "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	api.RegisterLoggerServiceServer(srv, api.NewServer(eng))

	go func() {
		_ = srv.Serve(lis)
	}()

	t.Cleanup(srv.Stop)

	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(configPath, config.Default()))

	var out bytes.Buffer

	opts := &Options{
		ConfigPath:    configPath,
		ServerAddress: lis.Addr().String(),
		Out:           &out,
	}

	require.NoError(t, Start(context.Background(), opts, "iv"))
	require.Contains(t, out.String(), "running")

	out.Reset()
	require.NoError(t, Set(context.Background(), opts, "iv", "limit2", "12.5"))
	require.Equal(t, "12.5", panel.GetConfigValue("iv", "limit2"))

	out.Reset()
	require.NoError(t, Status(context.Background(), opts))
	require.True(t, strings.Contains(out.String(), `"sessions"`))

	require.Error(t, Stop(context.Background(), opts, "sky"))
}
