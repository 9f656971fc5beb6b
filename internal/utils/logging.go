package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/logging"
)

// LogLevel defines log level types
type LogLevel string

// Log level constants - using values from config package
const (
	LogLevelDebug LogLevel = LogLevel(config.LogLevelDebug)
	LogLevelInfo  LogLevel = LogLevel(config.LogLevelInfo)
	LogLevelWarn  LogLevel = LogLevel(config.LogLevelWarn)
	LogLevelError LogLevel = LogLevel(config.LogLevelError)
)

// LogFormat defines log format types
type LogFormat string

// Log format constants - using values from config package
const (
	LogFormatText    LogFormat = LogFormat(config.LogFormatText)
	LogFormatJSON    LogFormat = LogFormat(config.LogFormatJSON)
	LogFormatJournal LogFormat = LogFormat(config.LogFormatJournal)
)

// journalAvailable is swapped in tests.
var journalAvailable = logging.Available

// levelVar is shared by every logger built by SetupLogger so the level can
// be changed at runtime from the HTTP API or a config reload.
var levelVar = new(slog.LevelVar)

// GetLogLevel converts a string log level to slog.Level
func GetLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case string(LogLevelDebug):
		return slog.LevelDebug
	case string(LogLevelWarn):
		return slog.LevelWarn
	case string(LogLevelError):
		return slog.LevelError
	case string(LogLevelInfo):
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// LevelName converts a slog.Level back to its config string
func LevelName(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return string(LogLevelDebug)
	case level <= slog.LevelInfo:
		return string(LogLevelInfo)
	case level <= slog.LevelWarn:
		return string(LogLevelWarn)
	default:
		return string(LogLevelError)
	}
}

// IsValidLogLevel reports whether level is one of the known level names
func IsValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case string(LogLevelDebug), string(LogLevelInfo), string(LogLevelWarn), string(LogLevelError):
		return true
	default:
		return false
	}
}

// ValidateLogLevel ensures the provided level is valid, returning a default if not
func ValidateLogLevel(level string) string {
	if IsValidLogLevel(level) {
		return strings.ToLower(level)
	}
	return string(LogLevelInfo)
}

// ValidateLogFormat ensures the provided format is valid, returning a default if not
func ValidateLogFormat(format string) string {
	switch format {
	case string(LogFormatText), string(LogFormatJSON), string(LogFormatJournal):
		return format
	default:
		return string(LogFormatText)
	}
}

// NewLogger creates a logger writing to w. Its level follows the shared
// level variable, which is initialised to level.
func NewLogger(w io.Writer, level string, format string) *slog.Logger {
	levelVar.Set(GetLogLevel(ValidateLogLevel(level)))

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: levelVar.Level() <= slog.LevelDebug,
	}

	var handler slog.Handler
	switch ValidateLogFormat(format) {
	case string(LogFormatJSON):
		handler = slog.NewJSONHandler(w, opts)
	case string(LogFormatJournal):
		if journalAvailable() {
			handler = logging.NewJournalHandler(levelVar)
			break
		}
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupLogger creates and returns a new logger writing to stderr.
// The level can be changed afterwards with SetLevel.
func SetupLogger(level string, format string) *slog.Logger {
	return NewLogger(os.Stderr, level, format)
}

// SetLevel changes the level of every logger created by SetupLogger
func SetLevel(level string) {
	levelVar.Set(GetLogLevel(ValidateLogLevel(level)))
}

// CurrentLevel returns the name of the active log level
func CurrentLevel() string {
	return LevelName(levelVar.Level())
}

// SetupErrorLogger creates a simple text logger for reporting errors during startup.
func SetupErrorLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SetAsDefaultLogger sets a logger as the default logger
func SetAsDefaultLogger(logger *slog.Logger) {
	slog.SetDefault(logger)
}
