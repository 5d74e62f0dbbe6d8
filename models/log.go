package models

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// Enabled reports whether messages at level l pass the threshold min.
// Unknown levels are treated as info.
func (l LogLevel) Enabled(min LogLevel) bool {
	lr, ok := logLevelRank[l]
	if !ok {
		lr = 1
	}
	mr, ok := logLevelRank[min]
	if !ok {
		mr = 1
	}
	return lr >= mr
}
