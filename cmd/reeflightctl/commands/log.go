package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/reeflightd/internal/utils"
)

// NewLogCommand creates the log command
func NewLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Manage daemon logging",
	}
	cmd.AddCommand(newLogLevelCommand())
	return cmd
}

// newLogLevelCommand creates the log level command
func newLogLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "level [debug|info|warn|error]",
		Short: "Show or change the daemon's log level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				level, err := c.GetLogLevel()
				if err != nil {
					return fmt.Errorf("failed to get log level: %w", err)
				}
				fmt.Println(level)
				return nil
			}
			if !utils.IsValidLogLevel(args[0]) {
				return fmt.Errorf("invalid log level %q", args[0])
			}
			level, err := c.SetLogLevel(args[0])
			if err != nil {
				return fmt.Errorf("failed to set log level: %w", err)
			}
			getLoggerFromCmd(cmd).Debug("Daemon log level changed", "level", level)
			fmt.Printf("Log level: %s\n", level)
			return nil
		},
	}
}
