package logging

import (
	"fmt"
	"log"

	"villagefeed/models"
)

// LogFunc receives every log line that passes the level threshold, e.g. to
// persist it next to the sync run history.
type LogFunc func(level models.LogLevel, source, message string)

// NoOpLogger does nothing (default)
var NoOpLogger LogFunc = func(level models.LogLevel, source, message string) {}

// Logger writes "[level] source: message" lines through the standard logger.
type Logger struct {
	min  models.LogLevel
	sink LogFunc
}

func NewLogger(minLevel string) *Logger {
	return &Logger{min: models.LogLevel(minLevel), sink: NoOpLogger}
}

func (l *Logger) SetSink(fn LogFunc) {
	if fn == nil {
		fn = NoOpLogger
	}
	l.sink = fn
}

func (l *Logger) Log(level models.LogLevel, source, message string) {
	if !level.Enabled(l.min) {
		return
	}
	log.Printf("[%s] %s: %s", level, source, message)
	l.sink(level, source, message)
}

func (l *Logger) Logf(level models.LogLevel, source, format string, args ...any) {
	if !level.Enabled(l.min) {
		return
	}
	l.Log(level, source, fmt.Sprintf(format, args...))
}
