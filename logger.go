package annidx

import (
	"io"
	"log/slog"
	"math"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers so operations log
// with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler falls
// back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger emitting JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger emitting human-readable records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(math.MaxInt),
	}))}
}

// LogTrain logs a training pass.
func (l *Logger) LogTrain(id uint64, count int, err error) {
	if err != nil {
		l.Error("train failed", "index", id, "count", count, "error", err)
		return
	}
	l.Debug("train completed", "index", id, "count", count)
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(id uint64, count int, err error) {
	if err != nil {
		l.Error("add failed", "index", id, "count", count, "error", err)
		return
	}
	l.Debug("add completed", "index", id, "count", count)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(id uint64, nq, k int, err error) {
	if err != nil {
		l.Error("search failed", "index", id, "nq", nq, "k", k, "error", err)
		return
	}
	l.Debug("search completed", "index", id, "nq", nq, "k", k)
}

// LogMerge logs a merge between two indexes.
func (l *Logger) LogMerge(dst, src uint64, added int, err error) {
	if err != nil {
		l.Error("merge failed", "dst", dst, "src", src, "error", err)
		return
	}
	l.Info("merge completed", "dst", dst, "src", src, "added", added)
}

// LogSnapshot logs a save or load.
func (l *Logger) LogSnapshot(id uint64, op, name string, err error) {
	if err != nil {
		l.Error("snapshot failed", "index", id, "op", op, "name", name, "error", err)
		return
	}
	l.Info("snapshot completed", "index", id, "op", op, "name", name)
}
