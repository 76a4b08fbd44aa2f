package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
		" WARN": zapcore.WarnLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal checks that an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))
	require.Same(t, global, FromContext(nil)) //nolint:staticcheck // nil context is tolerated.
}

// TestWithKV_AttachesFields ensures fields added to the context reach the written entry.
func TestWithKV_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := withLogger(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "engine")
	ctx = WithKV(ctx, "domain", "iv")

	InfoKV(ctx, "Sample logged", "x", 1.5)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "engine", entries[0].LoggerName)
	require.Equal(t, "iv", entries[0].ContextMap()["domain"])
	require.InDelta(t, 1.5, entries[0].ContextMap()["x"], 0.0001)
}

// TestConfigure_KeepsLevelOnEmptyOrUnknown accepts an empty setting and rejects unknown names.
func TestConfigure_KeepsLevelOnEmptyOrUnknown(t *testing.T) {
	t.Parallel()

	before := level.Level()

	require.True(t, Configure(""))
	require.True(t, Configure("  "))
	require.False(t, Configure("loud"))
	require.Equal(t, before, level.Level())
}
