package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// loggerContextKey is the context key of the CLI logger.
type loggerContextKey struct{}

// getLoggerFromCmd returns the slog.Logger from the command context
func getLoggerFromCmd(cmd *cobra.Command) *slog.Logger {
	for c := cmd; c != nil; c = c.Parent() {
		if ctx := c.Context(); ctx != nil {
			if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
				return logger
			}
		}
	}
	return slog.Default()
}
