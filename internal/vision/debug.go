package vision

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// LogLevel identifies one of the pipeline's independent logging streams.
type LogLevel int

const (
	// LogOps routes to the ops stream: actionable warnings/errors and
	// worker lifecycle events (start, stop, restart-after-panic).
	LogOps LogLevel = iota
	// LogDiag routes to the diag stream: per-tick diagnostics useful when
	// troubleshooting a specific detector.
	LogDiag
	// LogTrace routes to the trace stream: high-frequency per-frame detail,
	// off by default so a production run's ops log stays quiet.
	LogTrace
)

// LogWriters configures all three streams at once.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// SetLogWriters configures all three logging streams. Pass nil for any
// writer to disable that stream.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger("[vision] ", w.Ops)
	diagLogger = newLogger("[vision] ", w.Diag)
	traceLogger = newLogger("[vision] ", w.Trace)
}

// SetLogWriter configures a single logging stream.
func SetLogWriter(level LogLevel, w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	switch level {
	case LogOps:
		opsLogger = newLogger("[vision] ", w)
	case LogDiag:
		diagLogger = newLogger("[vision] ", w)
	case LogTrace:
		traceLogger = newLogger("[vision] ", w)
	default:
		panic(fmt.Sprintf("vision.SetLogWriter: unknown LogLevel %d", level))
	}
}

func logf(level LogLevel, format string, args ...interface{}) {
	logMu.RLock()
	var l *log.Logger
	switch level {
	case LogOps:
		l = opsLogger
	case LogDiag:
		l = diagLogger
	case LogTrace:
		l = traceLogger
	}
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) { logf(LogOps, format, args...) }

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) { logf(LogDiag, format, args...) }

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) { logf(LogTrace, format, args...) }
