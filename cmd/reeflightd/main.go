package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/internal/http/handlers"
	"github.com/jmylchreest/reeflightd/internal/hw"
	"github.com/jmylchreest/reeflightd/internal/server"
	"github.com/jmylchreest/reeflightd/internal/storage"
	"github.com/jmylchreest/reeflightd/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// sdNotify is swapped in tests.
var sdNotify = daemon.SdNotify

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("reeflightd", pflag.ContinueOnError)
	flags.String("config", "", "Path to config file")
	flags.String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.LogFormatText, "Log format (text, json, journal)")
	flags.String("socket", "", "Path to the control socket")
	flags.String("listen", config.DefaultAPIListenAddress, "HTTP API listen address, empty disables it")
	flags.Int("channels", config.DefaultLEDChannels, "Number of LED channels")
	flags.String("led-driver", config.DriverSim, "LED output driver (sim, sysfs)")
	flags.String("thermal-sensor", config.DriverSim, "Temperature sensor (sim, hwmon)")
	flags.String("fan-driver", config.DriverSim, "Fan driver (sim, sysfs)")
	flags.String("storage-dir", "", "Directory holding persisted settings")
	return flags
}

// loadConfig parses args and loads the configuration with flags bound over
// file and environment values. Flags left at their defaults do not
// override the file.
func loadConfig(args []string) (*config.Config, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	configFile, _ := flags.GetString("config")

	bound := pflag.NewFlagSet("reeflightd", pflag.ContinueOnError)
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			bound.AddFlag(f)
		}
	})
	return config.Load(config.DaemonConfigFilename, configFile, bound)
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	logger.Info("Starting reeflightd",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	if err := run(logger, cfg); err != nil {
		logger.Error("reeflightd failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg *config.Config) error {
	board := hw.New(logger.With("component", "hw"), cfg)

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return errors.LogErrorAndReturn(logger, err, "Failed to open settings storage", "dir", cfg.Storage.Dir)
	}

	srv, err := server.New(logger, cfg, board, store, handlers.VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		srv.Stop()
		return err
	}

	cfg.Watch(func(next *config.Config) {
		level := utils.ValidateLogLevel(next.Logging.Level)
		if level != utils.CurrentLevel() {
			utils.SetLevel(level)
			logger.Info("Log level changed from config file", "level", level)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := sdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
	}
	go watchdog(ctx, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
	cancel()

	if _, err := sdNotify(false, daemon.SdNotifyStopping); err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
	}
	srv.Stop()
	return nil
}

// watchdog pings the systemd watchdog at half its timeout until ctx is
// done. It returns immediately when the watchdog is not enabled.
func watchdog(ctx context.Context, logger *slog.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Failed to read systemd watchdog settings", "error", err)
		return
	}
	if interval == 0 {
		return
	}
	pingWatchdog(ctx, logger, interval/2)
}

func pingWatchdog(ctx context.Context, logger *slog.Logger, every time.Duration) {
	logger.Debug("Systemd watchdog enabled", "interval", every)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := sdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				logger.Warn("Failed to ping systemd watchdog", "error", err)
			}
		}
	}
}
