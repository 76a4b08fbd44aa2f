package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// level is shared by every logger derived from global, so SetLevel applies everywhere.
	//nolint:gochecknoglobals // One process-wide level.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
	// global receives messages logged through a context without a logger.
	//nolint:gochecknoglobals // Daemon and CLI share one console logger.
	global = newConsole(level)
)

// levelNames maps settings values to zap levels.
//
//nolint:gochecknoglobals // Read-only lookup table.
var levelNames = map[string]zapcore.Level{
	"debug":  zapcore.DebugLevel,
	"info":   zapcore.InfoLevel,
	"warn":   zapcore.WarnLevel,
	"error":  zapcore.ErrorLevel,
	"dpanic": zapcore.DPanicLevel,
	"panic":  zapcore.PanicLevel,
	"fatal":  zapcore.FatalLevel,
}

// newConsole builds the console logger: one line per entry, comma separated fields.
func newConsole(enabler zapcore.LevelEnabler) *zap.SugaredLogger {
	//nolint:exhaustruct // Remaining encoder keys stay disabled.
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: ", ",
	})

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), enabler)).Sugar()
}

// ParseLogLevel converts a settings value such as "warn" to a zap level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return zapcore.InfoLevel, false
	}

	return l, true
}

// Configure applies the log_level setting. An empty value keeps the current level;
// an unknown one keeps it too and reports false.
func Configure(value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}

	l, ok := ParseLogLevel(value)
	if ok {
		SetLevel(l)
	}

	return ok
}

// SetLevel changes the level of every logger derived from the global one.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Debug logs at debug level.
func Debug(ctx context.Context, args ...any) {
	FromContext(ctx).Debug(args...)
}

// DebugKV logs a message with key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info logs at info level.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// InfoKV logs a message with key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// WarnKV logs a message with key-value pairs at warning level.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV logs a message with key-value pairs at error level.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
