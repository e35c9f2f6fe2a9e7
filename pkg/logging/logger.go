// Package logging provides the leveled key-value logger used by the circuit
// runner, the run journal and the CLI. Library computation paths default to
// the no-op logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the level.
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

// Logger is the interface for logging operations.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, keyvals ...any)
	// Info logs an informational message.
	Info(msg string, keyvals ...any)
	// Warn logs a warning message.
	Warn(msg string, keyvals ...any)
	// Error logs an error message.
	Error(msg string, keyvals ...any)
	// With returns a new logger with additional key-value pairs.
	With(keyvals ...any) Logger
}

type stdLogger struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel Level
	keyvals  []any
}

// New creates a logger that writes to the given writer.
func New(writer io.Writer, minLevel Level) Logger {
	return &stdLogger{writer: writer, minLevel: minLevel}
}

// NewStd creates a logger that writes to stderr.
func NewStd(minLevel Level) Logger {
	return New(os.Stderr, minLevel)
}

func (l *stdLogger) Debug(msg string, keyvals ...any) { l.log(LevelDebug, msg, keyvals...) }
func (l *stdLogger) Info(msg string, keyvals ...any)  { l.log(LevelInfo, msg, keyvals...) }
func (l *stdLogger) Warn(msg string, keyvals ...any)  { l.log(LevelWarn, msg, keyvals...) }
func (l *stdLogger) Error(msg string, keyvals ...any) { l.log(LevelError, msg, keyvals...) }

func (l *stdLogger) With(keyvals ...any) Logger {
	kv := make([]any, 0, len(l.keyvals)+len(keyvals))
	kv = append(kv, l.keyvals...)
	kv = append(kv, keyvals...)
	return &stdLogger{writer: l.writer, minLevel: l.minLevel, keyvals: kv}
}

func (l *stdLogger) log(level Level, msg string, keyvals ...any) {
	if level < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.writer, "%s [%s]", time.Now().Format("2006-01-02 15:04:05.000"), level)
	for i := 0; i+1 < len(l.keyvals); i += 2 {
		fmt.Fprintf(l.writer, " %v=%v", l.keyvals[i], l.keyvals[i+1])
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(l.writer, " %v=%v", keyvals[i], keyvals[i+1])
	}
	fmt.Fprintf(l.writer, ": %s\n", msg)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keyvals ...any) {}
func (nopLogger) Info(msg string, keyvals ...any)  {}
func (nopLogger) Warn(msg string, keyvals ...any)  {}
func (nopLogger) Error(msg string, keyvals ...any) {}

// With returns the same no-op logger.
func (n nopLogger) With(keyvals ...any) Logger { return n }

// Nop returns a logger that discards all messages.
func Nop() Logger {
	return nopLogger{}
}
