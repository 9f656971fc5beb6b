package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigBaseDir(t *testing.T) {
	tests := []struct {
		name          string
		xdgConfigHome string
		expected      string
		suffix        bool
	}{
		{
			name:          "system_service",
			xdgConfigHome: SystemConfigDir,
			expected:      "/etc/reeflightd",
		},
		{
			name:          "user_default",
			xdgConfigHome: "",
			expected:      "/.config/reeflight",
			suffix:        true,
		},
		{
			name:          "user_custom_xdg",
			xdgConfigHome: "/home/user/myconfigs",
			expected:      "/home/user/myconfigs/reeflight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfigHome)

			result := GetConfigBaseDir()
			if tt.suffix {
				assert.True(t, filepath.IsAbs(result))
				assert.True(t, strings.HasSuffix(result, tt.expected), "got %s", result)
			} else {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", SystemConfigDir)
	assert.Equal(t, "/etc/reeflightd/reeflightd.yaml", GetDaemonConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	assert.Equal(t, "/tmp/cfg/reeflight/reeflightctl.yaml", GetClientConfigPath())
}

func TestGetStateBaseDir(t *testing.T) {
	t.Run("systemd state directory wins", func(t *testing.T) {
		t.Setenv("STATE_DIRECTORY", "/var/lib/reeflightd")
		t.Setenv("XDG_STATE_HOME", "/tmp/state")
		assert.Equal(t, "/var/lib/reeflightd", GetStateBaseDir())
	})

	t.Run("xdg state home", func(t *testing.T) {
		t.Setenv("STATE_DIRECTORY", "")
		t.Setenv("XDG_STATE_HOME", "/tmp/state")
		assert.Equal(t, "/tmp/state/reeflight", GetStateBaseDir())
	})
}

func TestGetRuntimeSocketPath(t *testing.T) {
	t.Run("xdg runtime dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("RUNTIME_DIRECTORY", "")
		t.Setenv("XDG_RUNTIME_DIR", dir)
		assert.Equal(t, filepath.Join(dir, SocketFilename), GetRuntimeSocketPath())
	})

	t.Run("systemd runtime directory wins", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("RUNTIME_DIRECTORY", dir)
		t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
		assert.Equal(t, dir, GetRuntimeDir())
		assert.Equal(t, filepath.Join(dir, SocketFilename), GetRuntimeSocketPath())
	})
}

func TestValidateThermalPeriod(t *testing.T) {
	assert.Equal(t, MinThermalPeriod, ValidateThermalPeriod(0))
	assert.Equal(t, MinThermalPeriod, ValidateThermalPeriod(10*time.Millisecond))
	assert.Equal(t, 3*time.Second, ValidateThermalPeriod(3*time.Second))
}

func TestValidateChannels(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLEDChannels},
		{-2, DefaultLEDChannels},
		{1, 1},
		{6, 6},
		{MaxLEDChannels, MaxLEDChannels},
		{42, MaxLEDChannels},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateChannels(tt.in), "channels=%d", tt.in)
	}
}
