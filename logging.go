package luasched

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// LogEntry is a single structured diagnostic emitted by a Runtime.
type LogEntry struct {
	Category string // "resume" or "error-callback"
	Thread   ThreadId
	Message  string
	Err      error
}

// Logger is the structured logging interface a Runtime emits diagnostics
// through. Implementations must not block the tick-loop goroutine for long
// — Log is called synchronously from it.
type Logger interface {
	Log(entry LogEntry)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(entry LogEntry)

func (f LoggerFunc) Log(entry LogEntry) {
	f(entry)
}

// noopLogger discards everything; returned by NewNoOpLogger.
type noopLogger struct{}

func (noopLogger) Log(LogEntry) {}

// NewNoOpLogger returns a Logger that discards all entries.
func NewNoOpLogger() Logger {
	return noopLogger{}
}

// stumpyLogger is the built-in default: structured, low-overhead logging
// via github.com/joeycumines/logiface backed by the stumpy encoder, the
// same pairing used throughout the corpus this scheduler was modeled on.
type stumpyLogger struct {
	backend *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds the default Logger, writing newline-delimited
// structured records to stumpy's default destination (stderr).
func NewStumpyLogger() Logger {
	return &stumpyLogger{backend: stumpy.L.New()}
}

func (l *stumpyLogger) Log(entry LogEntry) {
	var b *logiface.Builder[*stumpy.Event]
	if entry.Err != nil {
		b = l.backend.Err()
	} else {
		b = l.backend.Info()
	}
	b = b.Str("category", entry.Category)
	if entry.Thread != (ThreadId{}) {
		b = b.Str("thread", entry.Thread.String())
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}

var (
	globalLoggerMu sync.RWMutex
	globalLogger   Logger
)

// SetStructuredLogger installs the package-level default Logger used by any
// Runtime constructed without an explicit WithLogger option.
func SetStructuredLogger(l Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

func defaultLogger() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return NewStumpyLogger()
}
