// Package log provides the structured logging interface used across co2bench.
//
// The interface is slog-compatible in shape: a message plus alternating
// key/value fields. The default backend is zerolog (see zerolog.go); tests
// use TestLogger, which captures JSON lines in memory.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("pipeline").With(
//	    log.ModelNameKey, "RandomForestRegressor",
//	)
//	logger.Info("model fitted",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.DurationMsKey, 532,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. Error additionally accepts an
// error as its first field; backends attach its stack trace when one is
// available.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. The package-level GetLogger and
// GetLoggerWithName delegate to the installed provider.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
