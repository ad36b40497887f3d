package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	coerrors "github.com/YuminosukeSato/co2bench/pkg/errors"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
//
// An error passed as a bare field (without a preceding key) is recorded
// under "error", and its cockroachdb stack trace under StacktraceKey.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger writes JSON lines to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger writes colorized, human-oriented lines to w.
func NewConsoleLogger(w io.Writer, level Level) *ZerologLogger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	zl := zerolog.New(cw).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologLogger{zl: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for _, kv := range pairs(fields) {
		if kv.err != nil {
			ctx = ctx.AnErr(kv.key, kv.err)
			continue
		}
		ctx = ctx.Interface(kv.key, kv.value)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

// Zerolog exposes the underlying logger.
func (z *ZerologLogger) Zerolog() *zerolog.Logger {
	return &z.zl
}

func (z *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for _, kv := range pairs(fields) {
		switch {
		case kv.err != nil && kv.key == zerolog.ErrorFieldName:
			ev = ev.Err(kv.err)
			if st := extractStacktrace(kv.err); st != "" {
				ev = ev.Str(StacktraceKey, st)
			}
		case kv.err != nil:
			ev = ev.AnErr(kv.key, kv.err)
		default:
			if m, ok := kv.value.(zerolog.LogObjectMarshaler); ok {
				ev = ev.Object(kv.key, m)
				continue
			}
			ev = ev.Interface(kv.key, kv.value)
		}
	}
	ev.Msg(msg)
}

type field struct {
	key   string
	value any
	err   error
}

// pairs splits slog-style arguments. A bare error takes the key "error";
// a trailing key without a value is reported under "!BADKEY".
func pairs(fields []any) []field {
	out := make([]field, 0, (len(fields)+1)/2)
	for i := 0; i < len(fields); {
		if err, ok := fields[i].(error); ok {
			out = append(out, field{key: zerolog.ErrorFieldName, err: err})
			i++
			continue
		}
		if i+1 >= len(fields) {
			out = append(out, field{key: "!BADKEY", value: fields[i]})
			break
		}
		f := field{key: fmt.Sprint(fields[i]), value: fields[i+1]}
		if err, ok := fields[i+1].(error); ok {
			f.err = err
		}
		out = append(out, f)
		i += 2
	}
	return out
}

// extractStacktrace returns the outermost recorded stack, if any layer of
// err carries one.
func extractStacktrace(err error) string {
	for _, payload := range errors.GetAllSafeDetails(err) {
		if len(payload.SafeDetails) > 0 && payload.SafeDetails[0] != "" {
			return payload.SafeDetails[0]
		}
	}
	return ""
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, coerrors.NewValidationError("log-level", "must be one of debug, info, warn, error", s)
	}
}

// ===========================================================================
// package-level provider
// ===========================================================================

type zerologProvider struct {
	mu    sync.RWMutex
	w     io.Writer
	level Level
	root  Logger
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.root = NewZerologLogger(p.w, level)
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = func() LoggerProvider {
		p := &zerologProvider{w: os.Stderr, level: LevelInfo}
		p.root = NewZerologLogger(p.w, p.level)
		return p
	}()
)

// SetProvider replaces the global provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// SetLogger installs l as the root logger of the global provider.
func SetLogger(l Logger) {
	SetProvider(&staticProvider{root: l})
}

type staticProvider struct {
	mu   sync.RWMutex
	root Logger
}

func (p *staticProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

func (p *staticProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel is a no-op; the level belongs to the installed logger.
func (p *staticProvider) SetLevel(Level) {}

// GetLogger returns the root logger of the global provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with ComponentKey=name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// RouteWarnings sends pkg/errors warnings to l at WARN level. Passing nil
// restores the default handler.
func RouteWarnings(l Logger) {
	if l == nil {
		coerrors.SetZerologWarnFunc(nil)
		return
	}
	coerrors.SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			l.Warn(w.Error(), "warning", m)
			return
		}
		l.Warn(w.Error())
	})
}
