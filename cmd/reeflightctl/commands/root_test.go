package commands

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/reeflightd/pkg/client"
)

// probeCommand captures the client connect stored for it
func probeCommand(got *client.ClientInterface) *cobra.Command {
	return &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			*got = c
			return err
		},
	}
}

func TestRootCommand_SelectsTransport(t *testing.T) {
	tests := []struct {
		name     string
		conn     Connection
		args     []string
		wantHTTP bool
	}{
		{"socket by default", Connection{Socket: "/tmp/reef.sock"}, nil, false},
		{"url from config", Connection{URL: "http://reef:9180"}, nil, true},
		{"url flag", Connection{}, []string{"--url", "http://reef:9180", "--api-key", "k"}, true},
		{"socket flag", Connection{}, []string{"--socket", "/tmp/other.sock"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got client.ClientInterface
			root := NewRootCommand(nil, "dev", "none", "unknown", tt.conn)
			root.AddCommand(probeCommand(&got))
			root.SetContext(context.Background())
			root.SetArgs(append([]string{"probe"}, tt.args...))
			require.NoError(t, root.Execute())

			require.NotNil(t, got)
			_, isHTTP := got.(*client.HTTPClient)
			assert.Equal(t, tt.wantHTTP, isHTTP)
		})
	}
}

func TestRootCommand_KeepsExistingClient(t *testing.T) {
	mock := newMockClient()
	var got client.ClientInterface
	root := NewRootCommand(nil, "dev", "none", "unknown", Connection{URL: "http://reef:9180"})
	root.AddCommand(probeCommand(&got))
	root.SetContext(context.WithValue(context.Background(), ClientContextKey, mock))
	root.SetArgs([]string{"probe"})
	require.NoError(t, root.Execute())
	assert.Same(t, mock, got)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(nil, "dev", "none", "unknown", Connection{})
	for _, name := range []string{"version", "status", "settings", "mode", "color", "channel", "blank", "unblank",
		"correction", "schedule", "nightlight", "thermal", "power", "log", "discover"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"socket", "url", "api-key", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
