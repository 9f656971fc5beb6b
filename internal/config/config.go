package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the daemon configuration
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Discovery DiscoveryConfig
	Logging   LoggingConfig
	LED       LEDConfig
	Thermal   ThermalConfig
	Storage   StorageConfig

	// Internal viper instance
	v *viper.Viper
}

// ServerConfig represents the local control socket configuration
type ServerConfig struct {
	UnixSocket string
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	ListenAddress string   `mapstructure:"listen_address"` // Empty disables the HTTP API
	Keys          []string `mapstructure:"keys"`           // Static API keys, empty disables auth
	RateLimit     int      `mapstructure:"rate_limit"`     // Requests per minute per client IP, 0 disables
}

// DiscoveryConfig represents the mDNS announcement configuration
type DiscoveryConfig struct {
	Enabled  bool
	Instance string
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LEDConfig represents the LED engine and output driver configuration
type LEDConfig struct {
	Channels       int
	DutyMax        int           `mapstructure:"duty_max"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	Transition     time.Duration `mapstructure:"transition"`
	PreviewTimeout time.Duration `mapstructure:"preview_timeout"`
	Driver         string
	PWMChip        int `mapstructure:"pwm_chip"`
	PWMPeriodNs    int `mapstructure:"pwm_period_ns"`
}

// ThermalConfig represents the thermal loop and its hardware configuration
type ThermalConfig struct {
	Period        time.Duration
	Sensor        string
	HwmonPath     string `mapstructure:"hwmon_path"`
	Fan           string
	FanPWMChip    int `mapstructure:"fan_pwm_chip"`
	FanPWMChannel int `mapstructure:"fan_pwm_channel"`
}

// StorageConfig represents the settings storage configuration
type StorageConfig struct {
	Dir string
}

// flagKeys maps command line flag names onto configuration keys
var flagKeys = map[string]string{
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"socket":         "server.unix_socket",
	"listen":         "api.listen_address",
	"channels":       "led.channels",
	"led-driver":     "led.driver",
	"thermal-sensor": "thermal.sensor",
	"fan-driver":     "thermal.fan",
	"storage-dir":    "storage.dir",
}

// setDefaults registers every default value on v
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.unix_socket", GetRuntimeSocketPath())

	v.SetDefault("api.listen_address", DefaultAPIListenAddress)
	v.SetDefault("api.keys", []string{})
	v.SetDefault("api.rate_limit", DefaultRateLimit)

	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)

	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.instance", "")

	v.SetDefault("led.channels", DefaultLEDChannels)
	v.SetDefault("led.duty_max", DefaultDutyMax)
	v.SetDefault("led.tick_interval", DefaultLEDTickInterval)
	v.SetDefault("led.transition", DefaultTransition)
	v.SetDefault("led.preview_timeout", DefaultPreviewTimeout)
	v.SetDefault("led.driver", DriverSim)
	v.SetDefault("led.pwm_chip", 0)
	v.SetDefault("led.pwm_period_ns", DefaultPWMPeriodNs)

	v.SetDefault("thermal.period", DefaultThermalPeriod)
	v.SetDefault("thermal.sensor", DriverSim)
	v.SetDefault("thermal.hwmon_path", DefaultHwmonPath)
	v.SetDefault("thermal.fan", DriverSim)
	v.SetDefault("thermal.fan_pwm_chip", 1)
	v.SetDefault("thermal.fan_pwm_channel", 0)

	v.SetDefault("storage.dir", GetStateBaseDir())
}

// Load loads configuration from a file, environment variables and, when
// flags is not nil, command line flags. Flags take precedence over the
// environment, which takes precedence over the file.
func Load(configName, configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		slog.Info("Using config file from command line", "path", configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)

		if _, err := os.Stat(configPath); err == nil {
			slog.Info("Using default config file", "path", configPath)
		}
	}

	// A missing file leaves the defaults in place; a malformed one is an error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	return New(v), nil
}

// New builds a Config from an already populated viper instance
func New(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			UnixSocket: v.GetString("server.unix_socket"),
		},
		API: APIConfig{
			ListenAddress: v.GetString("api.listen_address"),
			Keys:          v.GetStringSlice("api.keys"),
			RateLimit:     v.GetInt("api.rate_limit"),
		},
		Discovery: DiscoveryConfig{
			Enabled:  v.GetBool("discovery.enabled"),
			Instance: v.GetString("discovery.instance"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		LED: LEDConfig{
			Channels:       ValidateChannels(v.GetInt("led.channels")),
			DutyMax:        v.GetInt("led.duty_max"),
			TickInterval:   v.GetDuration("led.tick_interval"),
			Transition:     v.GetDuration("led.transition"),
			PreviewTimeout: v.GetDuration("led.preview_timeout"),
			Driver:         v.GetString("led.driver"),
			PWMChip:        v.GetInt("led.pwm_chip"),
			PWMPeriodNs:    v.GetInt("led.pwm_period_ns"),
		},
		Thermal: ThermalConfig{
			Period:        ValidateThermalPeriod(v.GetDuration("thermal.period")),
			Sensor:        v.GetString("thermal.sensor"),
			HwmonPath:     v.GetString("thermal.hwmon_path"),
			Fan:           v.GetString("thermal.fan"),
			FanPWMChip:    v.GetInt("thermal.fan_pwm_chip"),
			FanPWMChannel: v.GetInt("thermal.fan_pwm_channel"),
		},
		Storage: StorageConfig{
			Dir: v.GetString("storage.dir"),
		},
		v: v,
	}
}

// Save writes the configuration back to the file viper was loaded from
func (c *Config) Save() error {
	logger := slog.Default()
	configPath := c.v.ConfigFileUsed()
	if configPath == "" {
		configPath = GetDaemonConfigPath()
		c.v.SetConfigFile(configPath)
	}

	logger.Info("Saving configuration", "path", configPath)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	c.v.Set("server.unix_socket", c.Server.UnixSocket)
	c.v.Set("api.listen_address", c.API.ListenAddress)
	c.v.Set("api.keys", c.API.Keys)
	c.v.Set("api.rate_limit", c.API.RateLimit)
	c.v.Set("logging.level", c.Logging.Level)
	c.v.Set("logging.format", c.Logging.Format)

	if err := c.v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	logger.Info("Configuration saved successfully", "path", configPath)
	return nil
}

// Watch invokes fn with the reloaded configuration every time the config
// file changes on disk.
func (c *Config) Watch(fn func(*Config)) {
	c.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("Config file changed", "path", e.Name, "op", e.Op.String())
		fn(New(c.v))
	})
	c.v.WatchConfig()
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) any {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// GetString retrieves a string value from the configuration, or "" when
// it is unset
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Set sets a value in the configuration
func (c *Config) Set(key string, value any) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
}
