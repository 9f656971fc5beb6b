package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GetRuntimeDir returns the directory for the control socket: systemd's
// RUNTIME_DIRECTORY, then XDG_RUNTIME_DIR, then /run/user/<uid>.
func GetRuntimeDir() string {
	for _, env := range []string{"RUNTIME_DIRECTORY", "XDG_RUNTIME_DIR"} {
		if dir := os.Getenv(env); dir != "" {
			return dir
		}
	}
	return filepath.Join("/run/user", strconv.Itoa(os.Getuid()))
}

// GetRuntimeSocketPath returns the control socket path. An existing socket
// in the user's runtime directory wins over the system service's socket;
// with neither present the user path is returned.
func GetRuntimeSocketPath() string {
	candidates := []string{
		filepath.Join(GetRuntimeDir(), SocketFilename),
		filepath.Join(SystemRuntimeDir, SocketFilename),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// GetConfigBaseDir returns the base directory for configuration files
func GetConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		// For system service, XDG_CONFIG_HOME is set to /etc/reeflightd
		// so we return it directly without appending ConfigDirName
		if dir == SystemConfigDir {
			return dir
		}
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", ConfigDirName)
}

// GetStateBaseDir returns the directory used to persist user settings
func GetStateBaseDir() string {
	if dir := os.Getenv("STATE_DIRECTORY"); dir != "" {
		// Set by systemd when StateDirectory= is configured
		return dir
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", ConfigDirName)
}

// GetConfigPath returns the full path to a configuration file
func GetConfigPath(filename string) string {
	return filepath.Join(GetConfigBaseDir(), filename)
}

// GetDaemonConfigPath returns the full path to the daemon configuration file
func GetDaemonConfigPath() string {
	return GetConfigPath(DaemonConfigFilename)
}

// GetClientConfigPath returns the full path to the client configuration file
func GetClientConfigPath() string {
	return GetConfigPath(ClientConfigFilename)
}

// ValidateThermalPeriod clamps the thermal loop period to the minimum allowed value
func ValidateThermalPeriod(period time.Duration) time.Duration {
	if period < MinThermalPeriod {
		return MinThermalPeriod
	}
	return period
}

// ValidateChannels clamps the LED channel count into [1, MaxLEDChannels]
func ValidateChannels(channels int) int {
	switch {
	case channels < 1:
		return DefaultLEDChannels
	case channels > MaxLEDChannels:
		return MaxLEDChannels
	default:
		return channels
	}
}
