package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	message  string
	priority journal.Priority
	fields   map[string]string
}

func newTestHandler(level slog.Leveler, err error) (*JournalHandler, *[]sent) {
	var records []sent
	h := NewJournalHandler(level)
	h.send = func(message string, p journal.Priority, vars map[string]string) error {
		records = append(records, sent{message, p, vars})
		return err
	}
	return h, &records
}

func TestJournalHandler_Fields(t *testing.T) {
	h, records := newTestHandler(slog.LevelDebug, nil)
	logger := slog.New(h).With("component", "thermal").WithGroup("pid")

	logger.Warn("Too hot", "temp", 66, "count", uint64(2), "ratio", 0.5, "shutdown", false,
		"after", 3*time.Second, slog.Group("fan", "power", 100))

	require.Len(t, *records, 1)
	rec := (*records)[0]
	assert.Equal(t, "Too hot", rec.message)
	assert.Equal(t, journal.PriWarning, rec.priority)
	assert.Equal(t, map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
		"COMPONENT":         "thermal",
		"PID_TEMP":          "66",
		"PID_COUNT":         "2",
		"PID_RATIO":         "0.5",
		"PID_SHUTDOWN":      "false",
		"PID_AFTER":         "3s",
		"PID_FAN_POWER":     "100",
	}, rec.fields)
}

func TestJournalHandler_Priority(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  journal.Priority
	}{
		{slog.LevelDebug, journal.PriDebug},
		{slog.LevelInfo, journal.PriInfo},
		{slog.LevelWarn, journal.PriWarning},
		{slog.LevelError, journal.PriErr},
		{slog.LevelError + 4, journal.PriErr},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, priority(tt.level))
		})
	}
}

func TestJournalHandler_FollowsLevelVar(t *testing.T) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	h, records := newTestHandler(level, nil)
	logger := slog.New(h)

	logger.Info("hidden")
	assert.Empty(t, *records)

	level.Set(slog.LevelInfo)
	logger.Info("shown")
	require.Len(t, *records, 1)
	assert.Equal(t, "shown", (*records)[0].message)
}

func TestJournalHandler_SendError(t *testing.T) {
	h, _ := newTestHandler(slog.LevelInfo, errors.New("no journal"))
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	assert.ErrorContains(t, err, "journal send: no journal")
}

func TestJournalHandler_WithAttrsDoesNotShare(t *testing.T) {
	h, records := newTestHandler(slog.LevelInfo, nil)
	a := slog.New(h).With("a", 1)
	b := slog.New(h).With("b", 2)

	a.Info("one")
	b.Info("two")

	require.Len(t, *records, 2)
	assert.NotContains(t, (*records)[0].fields, "B")
	assert.NotContains(t, (*records)[1].fields, "A")
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "REMOTE_ADDR", fieldName("remote_addr"))
	assert.Equal(t, "KEY_PREFIX", fieldName("key-prefix"))
	assert.Equal(t, "LED_0", fieldName("led.0"))
}
