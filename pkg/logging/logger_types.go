package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level orders log output. Entries below a logger's level are dropped.
type Level int

const (
	// DebugLevel traces individual graph construction steps
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel reports soft anomalies such as dangling references or unknown themes
	WarnLevel
	// ErrorLevel reports calls that were rejected
	ErrorLevel
)

var levelNames = [...]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// String returns the upper-case name written into the "level" key.
func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name case-insensitively. WARNING is accepted
// for WARN, and anything unrecognised yields InfoLevel so a bad
// POLICYGRAPH_LOG_LEVEL never silences errors.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WarnLevel
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l)
		}
	}
	return InfoLevel
}

// Field is one key of an entry's "fields" object.
type Field struct {
	Key   string
	Value any
}

// Logger is the interface every builder, analyzer and exporter logs through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger whose entries all carry fields, e.g. the
	// component name of a builder.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per line. Children made by With share
// the parent's writer and mutex.
type JSONLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	now    func() time.Time
	mu     *sync.Mutex
}

// LogEntry is the line format. Time is RFC 3339 with nanoseconds, in UTC.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything. It is the logger used when an option
// record leaves Logger unset.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

func NewNopLogger() Logger {
	return NopLogger{}
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// TimedOperation is returned by StartTimer. End or EndError logs the
// elapsed time of one build or export.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
