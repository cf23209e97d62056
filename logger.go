package descpool

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with descpool-specific context.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithFrame adds a frame-slot field to the logger.
func (l *Logger) WithFrame(frame int) *Logger {
	return &Logger{
		Logger: l.Logger.With("frame", frame),
	}
}

// LogAllocate logs an allocation attempt.
func (l *Logger) LogAllocate(frame, count int, err error) {
	if err != nil {
		l.Warn("allocate failed",
			"frame", frame,
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("allocate completed",
			"frame", frame,
			"count", count,
		)
	}
}

// LogCompaction logs an arena compaction at a frame boundary.
func (l *Logger) LogCompaction(frame int, generation uint32) {
	l.Info("arena compacted",
		"frame", frame,
		"generation", generation,
	)
}

// LogInvalidFrame logs out-of-range frame-index misuse.
func (l *Logger) LogInvalidFrame(op string, frame, frames int) {
	l.Warn("invalid frame index",
		"op", op,
		"frame", frame,
		"frames_in_flight", frames,
	)
}
