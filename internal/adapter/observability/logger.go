// Package observability backs the usecase Logger port with zap.
package observability

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the logger behaviour.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is human (console encoder) or json. Both write to stderr so
	// report output on stdout stays pipeable.
	Format string
	// LogFile, when set, tees log output to a size-rotated file. Watch mode
	// uses this so long-running sessions do not fill a disk.
	LogFile string
}

// Logger adapts zap to the lint.Logger port.
type Logger struct {
	zap *zap.Logger
}

// NewLogger builds a leveled zap logger per opts.
func NewLogger(opts Options) (*Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if opts.Format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if opts.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	return &Logger{zap: zap.New(zapcore.NewTee(cores...))}, nil
}

// NewWithZap wraps an existing zap logger. Tests pair this with the
// observer core.
func NewWithZap(z *zap.Logger) *Logger {
	return &Logger{zap: z}
}

// Sync flushes buffered log entries. Deferred in main.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// LogDebug logs low-level diagnostics with structured fields.
func (l *Logger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Debug(message, toZapFields(fields)...)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Info(message, toZapFields(fields)...)
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Warn(message, toZapFields(fields)...)
}

// LogError logs a non-fatal failure with structured fields.
func (l *Logger) LogError(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Error(message, toZapFields(fields)...)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown logging level %q (expected debug, info, warn, or error)", level)
	}
}

// toZapFields converts the port's field map to zap fields in key order, so
// log lines are stable for a given call site.
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zapFields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zapFields = append(zapFields, zap.Any(k, fields[k]))
	}
	return zapFields
}
