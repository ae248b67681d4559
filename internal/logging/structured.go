// Package logging provides structured JSON logging for tokest components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 2
	}
}

// ParseLevel maps a name to a Level. Unknown names map to LevelWarn.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelError:
		return LevelError
	default:
		return LevelWarn
	}
}

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	RequestID string                 `json:"request_id,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = LevelWarn
)

// SetOutput redirects all loggers. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	outMu.Lock()
	defer outMu.Unlock()
	minLevel = l
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func emit(e Event) {
	outMu.Lock()
	defer outMu.Unlock()
	if e.Level.rank() < minLevel.rank() {
		return
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(out, string(data))
}

// Logger provides structured logging
type Logger struct {
	component string
	requestID string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithRequest sets the request context
func (l *Logger) WithRequest(id string) *Logger {
	return &Logger{
		component: l.component,
		requestID: id,
	}
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{
		Timestamp: now(),
		Level:     level,
		Component: l.component,
		Event:     event,
		RequestID: l.requestID,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	emit(e)
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with the time elapsed since start
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	emit(Event{
		Timestamp: now(),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		RequestID: l.requestID,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	})
}
