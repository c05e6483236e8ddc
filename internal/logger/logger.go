// Package logger provides context-aware structured logging over log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Level is the minimum level a record must have to be emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is the logging port handed to every component. Methods are
// context-first so records can be enriched with the active trace.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger implements LoggerInterface with a slog JSON handler.
type Logger struct {
	sl *slog.Logger
}

// New creates a Logger writing JSON records to w at the given level.
// The service name is attached to every record; extra attrs are optional.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level.slogLevel(),
	})

	sl := slog.New(handler).With("service", service)
	for _, a := range attrs {
		sl = sl.With(a)
	}

	return &Logger{sl: sl}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

// With returns a logger carrying additional attributes.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		args = append(args,
			"trace_id", span.TraceID().String(),
			"span_id", span.SpanID().String(),
		)
	}
	l.sl.Log(ctx, level, msg, args...)
}
