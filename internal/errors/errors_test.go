package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
		kind error
		msg  string
	}{
		{"invalid input", InvalidInputf("channel %d out of range", 7), IsInvalidInput, ErrInvalidInput, "channel 7 out of range: invalid input"},
		{"device unavailable", DeviceUnavailablef("pwmchip%d", 1), IsDeviceUnavailable, ErrDeviceUnavailable, "pwmchip1: device unavailable"},
		{"unavailable", Unavailablef("mdns register: %v", "no interface"), IsUnavailable, ErrUnavailable, "mdns register: no interface: service unavailable"},
		{"not found", WrapErrorf(ErrNotFound, "namespace %q", "led"), IsNotFound, ErrNotFound, `namespace "led": resource not found`},
	}

	kinds := []func(error) bool{IsInvalidInput, IsDeviceUnavailable, IsUnavailable, IsNotFound}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.True(t, Is(tt.err, tt.kind))

			matches := 0
			for _, is := range kinds {
				if is(tt.err) {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "an error has exactly one kind")
			assert.True(t, tt.is(tt.err))

			// Wrapping again keeps the kind
			assert.True(t, tt.is(WrapErrorf(tt.err, "restore settings")))
		})
	}
}

func TestWrapErrorf_Nil(t *testing.T) {
	assert.NoError(t, WrapErrorf(nil, "context %s", "value"))
}

func TestLogErrorAndReturn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.NoError(t, LogErrorAndReturn(logger, nil, "not logged"))
	assert.Empty(t, buf.String())

	err := errors.New("disk full")
	assert.Same(t, err, LogErrorAndReturn(logger, err, "Failed to open settings storage", "dir", "/var/lib/reeflight"))
	assert.Contains(t, buf.String(), "Failed to open settings storage")
	assert.Contains(t, buf.String(), "error=\"disk full\"")
	assert.Contains(t, buf.String(), "dir=/var/lib/reeflight")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", InvalidInputf("bad mode %q", "disco"), http.StatusBadRequest},
		{"not found", WrapErrorf(ErrNotFound, "namespace %q", "thermal"), http.StatusNotFound},
		{"device", DeviceUnavailablef("hwmon"), http.StatusServiceUnavailable},
		{"service", Unavailablef("storage"), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}
