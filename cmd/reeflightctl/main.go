package main

import (
	"os"

	"github.com/jmylchreest/reeflightd/cmd/reeflightctl/commands"
	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// The client config file is optional; only a malformed one is fatal
	cfg, err := config.Load(config.ClientConfigFilename, "", nil)
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	rootCmd := commands.NewRootCommand(logger, version, commit, buildDate, commands.Connection{
		Socket: cfg.Server.UnixSocket,
		URL:    cfg.GetString("client.url"),
		APIKey: cfg.GetString("client.api_key"),
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
