// Package logging wraps go-logr with the verbosity levels the PortableFS
// codec and tree packages log at: V(0) for top-level events, V(1) for
// per-stage decode/encode summaries, V(2) for header and per-table detail.
package logging

import (
	"github.com/go-logr/logr"
)

// Verbosity levels used with logr.Logger.V throughout the module.
const (
	LevelInfo  = 0
	LevelDebug = 1
	LevelTrace = 2
)

// Logger wraps a logr.Logger with level-named convenience methods, so
// callers write l.Trace(...) instead of repeating V(LevelTrace) at every
// call site.
type Logger struct {
	log logr.Logger
}

// NewLogger wraps log. A logger with no sink falls back to logr.Discard.
func NewLogger(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{log: logr.Discard()}
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(LevelDebug).Info(msg, keysAndValues...)
}

func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log.V(LevelTrace).Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
