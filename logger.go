package anim

import (
	"log/slog"
	"os"

	"github.com/yt-zgl/oryol-animation/model"
)

// Logger wraps slog.Logger with arena-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// WithResource adds a resource id field to the logger.
func (l *Logger) WithResource(id model.ID) *Logger {
	return &Logger{Logger: l.Logger.With("resource", id.String())}
}

// WithName adds a resource name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{Logger: l.Logger.With("name", name)}
}

// LogCreate logs a resource creation.
func (l *Logger) LogCreate(kind, name string, id model.ID, err error) {
	if err != nil {
		l.Warn("create failed", "kind", kind, "name", name, "error", err)
	} else {
		l.Debug("create completed", "kind", kind, "name", name, "resource", id.String())
	}
}

// LogDestroy logs a bulk destruction.
func (l *Logger) LogDestroy(label model.Label, count int) {
	l.Debug("destroy completed", "label", uint32(label), "count", count)
}

// LogWriteKeys logs a bulk key upload.
func (l *Logger) LogWriteKeys(name string, bytes int, err error) {
	if err != nil {
		l.Error("write keys failed", "name", name, "bytes", bytes, "error", err)
	} else {
		l.Debug("write keys completed", "name", name, "bytes", bytes)
	}
}
