package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/reeflightd/internal/config"
	"github.com/jmylchreest/reeflightd/internal/utils"
	"github.com/jmylchreest/reeflightd/pkg/client"
)

// Connection holds the defaults used to reach the daemon. The persistent
// flags override them.
type Connection struct {
	Socket string
	URL    string
	APIKey string
}

// NewRootCommand creates the root command
func NewRootCommand(logger *slog.Logger, version, commit, buildDate string, conn Connection) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reeflightctl",
		Short:        "Control a reeflightd aquarium light",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return connect(cmd, logger, conn)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("socket", "", "Path to reeflightd socket")
	cmd.PersistentFlags().String("url", "", "Base URL of the reeflightd HTTP API, used instead of the socket")
	cmd.PersistentFlags().String("api-key", "", "API key for the HTTP API")
	cmd.PersistentFlags().String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", config.LogFormatText, "Log format (text, json)")

	// Add commands
	cmd.AddCommand(newVersionCommand(version, commit, buildDate))
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newSettingsCommand())
	cmd.AddCommand(newModeCommand())
	cmd.AddCommand(newColorCommand())
	cmd.AddCommand(newChannelCommand())
	cmd.AddCommand(newBlankCommand(true))
	cmd.AddCommand(newBlankCommand(false))
	cmd.AddCommand(newCorrectionCommand())
	cmd.AddCommand(NewScheduleCommand())
	cmd.AddCommand(NewNightlightCommand())
	cmd.AddCommand(NewThermalCommand())
	cmd.AddCommand(NewPowerCommand())
	cmd.AddCommand(NewLogCommand())
	cmd.AddCommand(newDiscoverCommand())

	if logger != nil {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		cmd.SetContext(context.WithValue(parent, loggerContextKey{}, logger))
	}

	return cmd
}

// connect applies the logging flags and stores a socket or HTTP client in
// the command context, unless one is already there.
func connect(cmd *cobra.Command, logger *slog.Logger, conn Connection) error {
	flags := cmd.Flags()
	if flags.Changed("log-format") {
		level, _ := flags.GetString("log-level")
		format, _ := flags.GetString("log-format")
		logger = utils.SetupLogger(level, format)
		utils.SetAsDefaultLogger(logger)
	} else if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		utils.SetLevel(level)
	}
	if logger == nil {
		logger = getLoggerFromCmd(cmd)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := clientFrom(cmd); err == nil {
		return nil
	}

	if v, _ := flags.GetString("socket"); v != "" {
		conn.Socket = v
	}
	if v, _ := flags.GetString("url"); v != "" {
		conn.URL = v
	}
	if v, _ := flags.GetString("api-key"); v != "" {
		conn.APIKey = v
	}

	var c client.ClientInterface
	if conn.URL != "" {
		logger.Debug("Using HTTP API", "url", conn.URL)
		c = client.NewHTTP(logger, conn.URL, conn.APIKey)
	} else {
		c = client.New(logger, conn.Socket)
	}
	cmd.SetContext(context.WithValue(ctx, ClientContextKey, c))
	return nil
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Client:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)

			// Try to query the daemon for its version
			c, err := clientFrom(cmd)
			if err != nil {
				return
			}
			resp, err := c.GetVersion()
			if err != nil {
				fmt.Printf("\nDaemon: not reachable\n")
				return
			}
			fmt.Printf("\nDaemon:\n")
			if v, ok := resp["version"].(string); ok {
				fmt.Printf("  Version:    %s\n", v)
			}
			if c, ok := resp["commit"].(string); ok {
				fmt.Printf("  Commit:     %s\n", c)
			}
			if d, ok := resp["build_date"].(string); ok {
				fmt.Printf("  Build Date: %s\n", d)
			}
		},
	}
}
