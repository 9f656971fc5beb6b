package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/reeflightd/pkg/client"
)

// ClientContextKey is used for storing the client in context for commands.
// All command handlers and the main entry point must use this same key
// to ensure the client can be retrieved from the context.
var ClientContextKey = &struct{}{}

var errNoClient = errors.New("not connected to reeflightd")

// clientFrom returns the client stored in the command's context.
func clientFrom(cmd *cobra.Command) (client.ClientInterface, error) {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(ClientContextKey).(client.ClientInterface); ok && c != nil {
			return c, nil
		}
	}
	return nil, errNoClient
}
