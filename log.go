package batch

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// batchLogLevel controls the log level for batching diagnostics.
// Default is LevelInfo, which suppresses Debug messages.
// SetVerbose(true) sets it to LevelDebug.
var batchLogLevel = new(slog.LevelVar)

// loggerPtr stores the active logger so SetLogger may be called from a
// goroutine other than the render thread.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(defaultLogger())
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: batchLogLevel}))
}

// SetVerbose enables or disables debug logging (buffer growth, program
// switches, texture uploads and evictions, context loss).
// Call this from main() after parsing flags.
func SetVerbose(v bool) {
	if v {
		batchLogLevel.Set(slog.LevelDebug)
	} else {
		batchLogLevel.Set(slog.LevelInfo)
	}
}

// SetLogger replaces the package logger. Pass nil to restore the default
// stderr logger, which honors SetVerbose.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = defaultLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger used by the batch package and its backends.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// debugEnabled reports whether debug records would be emitted, so hot paths
// can skip building attributes.
func debugEnabled() bool {
	return Logger().Enabled(context.Background(), slog.LevelDebug)
}
