package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "reeflight"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "reeflightd.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "reeflightctl.yaml"

	// SocketFilename is the base filename for the Unix socket
	SocketFilename = "reeflightd.sock"

	// SystemConfigDir is the config directory used when running as a system service
	SystemConfigDir = "/etc/reeflightd"

	// SystemRuntimeDir is the runtime directory used when running as a system service
	SystemRuntimeDir = "/run/reeflightd"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "REEFLIGHT"

	// DefaultAPIListenAddress is the default HTTP API listen address
	DefaultAPIListenAddress = ":9180"

	// DefaultRateLimit is the default number of requests per minute per client IP
	DefaultRateLimit = 120
)

// LED defaults
const (
	// DefaultLEDChannels is the number of LED channels on the reference board
	DefaultLEDChannels = 4

	// MaxLEDChannels is the largest supported channel count
	MaxLEDChannels = 10

	// DefaultDutyMax is the full-scale duty value of a 12-bit PWM
	DefaultDutyMax = 4095

	// DefaultLEDTickInterval is the LED loop period
	DefaultLEDTickInterval = 20 * time.Millisecond

	// DefaultTransition is the duration of a mode transition fade
	DefaultTransition = time.Second

	// DefaultPreviewTimeout is the inactivity timeout of the preview mode
	DefaultPreviewTimeout = 5 * time.Minute

	// DefaultPWMPeriodNs is the default sysfs PWM period (1 kHz)
	DefaultPWMPeriodNs = 1_000_000
)

// Thermal defaults
const (
	// DefaultThermalPeriod is the thermal loop period
	DefaultThermalPeriod = 3 * time.Second

	// MinThermalPeriod is the shortest accepted thermal loop period
	MinThermalPeriod = 100 * time.Millisecond

	// DefaultHwmonPath is the default hwmon temperature input
	DefaultHwmonPath = "/sys/class/hwmon/hwmon0/temp1_input"
)

// Hardware driver names
const (
	DriverSim   = "sim"
	DriverSysfs = "sysfs"
	DriverHwmon = "hwmon"
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"

	// LogFormatJournal sends logs to the systemd journal, falling back to
	// text when the journal is not available
	LogFormatJournal = "journal"
)
