package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/reeflightd/internal/logging"
)

// resetLevel restores the shared level after a test changes it.
func resetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(string(LogLevelInfo)) })
}

func TestLevels(t *testing.T) {
	tests := []struct {
		in        string
		valid     bool
		validated string
		level     slog.Level
	}{
		{"debug", true, "debug", slog.LevelDebug},
		{"INFO", true, "info", slog.LevelInfo},
		{"warn", true, "warn", slog.LevelWarn},
		{"Error", true, "error", slog.LevelError},
		{"trace", false, "info", slog.LevelInfo},
		{"", false, "info", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidLogLevel(tt.in))
			assert.Equal(t, tt.validated, ValidateLogLevel(tt.in))
			assert.Equal(t, tt.level, GetLogLevel(tt.in))
			assert.Equal(t, tt.validated, LevelName(tt.level))
		})
	}
	assert.Equal(t, "error", LevelName(slog.LevelError+4))
}

func TestValidateLogFormat(t *testing.T) {
	for in, want := range map[string]string{
		"text":    "text",
		"json":    "json",
		"journal": "journal",
		"logfmt":  "text",
		"":        "text",
	} {
		assert.Equal(t, want, ValidateLogFormat(in), in)
	}
}

func TestNewLogger_Formats(t *testing.T) {
	resetLevel(t)

	var text, js bytes.Buffer
	NewLogger(&text, "info", "text").Info("fan stalled", "channel", 2)
	NewLogger(&js, "info", "json").Info("fan stalled", "channel", 2)

	assert.Contains(t, text.String(), "msg=\"fan stalled\" channel=2")
	assert.Contains(t, js.String(), `"channel":2`)
	assert.Equal(t, byte('{'), js.Bytes()[0])
}

func TestNewLogger_Journal(t *testing.T) {
	resetLevel(t)
	old := journalAvailable
	t.Cleanup(func() { journalAvailable = old })

	t.Run("falls back to text without a journal", func(t *testing.T) {
		journalAvailable = func() bool { return false }
		var buf bytes.Buffer
		NewLogger(&buf, "info", "journal").Info("started")
		assert.Contains(t, buf.String(), "msg=started")
	})

	t.Run("uses the journal handler", func(t *testing.T) {
		journalAvailable = func() bool { return true }
		var buf bytes.Buffer
		logger := NewLogger(&buf, "info", "journal")
		_, ok := logger.Handler().(*logging.JournalHandler)
		assert.True(t, ok)
		assert.Empty(t, buf.String())
	})
}

func TestSetLevel_ChangesExistingLoggers(t *testing.T) {
	resetLevel(t)
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "text")

	logger.Debug("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetLevel("debug")
	assert.Equal(t, "debug", CurrentLevel())
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	SetLevel("bogus")
	assert.Equal(t, "info", CurrentLevel())
}

func TestSetupHelpers(t *testing.T) {
	resetLevel(t)
	require.NotNil(t, SetupErrorLogger())
	assert.False(t, SetupErrorLogger().Enabled(t.Context(), slog.LevelWarn))

	logger := SetupLogger("warn", "json")
	require.NotNil(t, logger)
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	SetAsDefaultLogger(logger)
	assert.Same(t, logger, slog.Default())
}
