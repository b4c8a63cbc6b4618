package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

var levelColors = map[int]*color.Color{
	LevelInfo:  color.New(color.FgGreen),
	LevelDebug: color.New(color.FgCyan),
	LevelTrace: color.New(color.FgYellow),
}

var errorColor = color.New(color.FgRed)

// SimpleLogSink is a logr.LogSink producing human-readable, optionally
// colored output for the CLI tools: a labeled message line, then one
// indented line per key/value pair.
type SimpleLogSink struct {
	mu        sync.Mutex
	writer    io.Writer
	verbosity int
	name      string
	values    []interface{}
	useColor  bool
	callDepth int
}

// NewSimpleLogSink returns a sink writing to w (os.Stdout when nil) that
// logs levels up to verbosity inclusive.
func NewSimpleLogSink(w io.Writer, verbosity int, useColor bool) *SimpleLogSink {
	if w == nil {
		w = os.Stdout
	}
	return &SimpleLogSink{writer: w, verbosity: verbosity, useColor: useColor}
}

// NewSimpleLogger wraps a fresh SimpleLogSink in a logr.Logger.
func NewSimpleLogger(w io.Writer, verbosity int, useColor bool) logr.Logger {
	return logr.New(NewSimpleLogSink(w, verbosity, useColor))
}

// Init implements logr.LogSink.
func (s *SimpleLogSink) Init(info logr.RuntimeInfo) {
	s.callDepth = info.CallDepth
}

// Enabled reports whether a message at level would be written.
func (s *SimpleLogSink) Enabled(level int) bool {
	return level <= s.verbosity
}

// Info writes a non-error message with its key/value pairs.
func (s *SimpleLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	s.write(s.label(level), msg, keysAndValues)
}

// Error writes an error message; the error itself is appended as a final
// "error" key/value pair.
func (s *SimpleLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	kv := append(append([]interface{}{}, keysAndValues...), "error", err)
	s.write(s.errorLabel(), msg, kv)
}

// WithValues returns a sink whose pairs are prepended to every message's
// key/value output.
func (s *SimpleLogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	c := s.clone()
	c.values = append(c.values, keysAndValues...)
	return c
}

// WithName returns a sink whose messages carry a dotted name prefix.
func (s *SimpleLogSink) WithName(name string) logr.LogSink {
	c := s.clone()
	if c.name != "" {
		c.name = c.name + "." + name
	} else {
		c.name = name
	}
	return c
}

func (s *SimpleLogSink) clone() *SimpleLogSink {
	return &SimpleLogSink{
		writer:    s.writer,
		verbosity: s.verbosity,
		name:      s.name,
		values:    append([]interface{}{}, s.values...),
		useColor:  s.useColor,
		callDepth: s.callDepth,
	}
}

func (s *SimpleLogSink) label(level int) string {
	var text string
	switch level {
	case LevelInfo:
		text = "[INFO]"
	case LevelDebug:
		text = "[DEBUG]"
	case LevelTrace:
		text = "[TRACE]"
	default:
		return fmt.Sprintf("[LEVEL %d]", level)
	}
	if c := levelColors[level]; s.useColor && c != nil {
		return c.Sprint(text)
	}
	return text
}

func (s *SimpleLogSink) errorLabel() string {
	if s.useColor {
		return errorColor.Sprint("[ERROR]")
	}
	return "[ERROR]"
}

func (s *SimpleLogSink) write(label, msg string, keysAndValues []interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.name != "" {
		msg = "[" + s.name + "] " + msg
	}
	fmt.Fprintln(s.writer, label+" "+msg)

	all := append(append([]interface{}{}, s.values...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		key, ok := all[i].(string)
		if !ok {
			key = fmt.Sprintf("key%d", i/2)
		}
		fmt.Fprintf(s.writer, "  %s: %v\n", key, all[i+1])
	}
}
