package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/reeflightd/internal/discovery"
)

// browse is swapped in tests.
var browse = discovery.Browse

// newDiscoverCommand creates the discover command
func newDiscoverCommand() *cobra.Command {
	var parseable bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find reeflightd instances announcing their HTTP API on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := browse(cmd.Context(), getLoggerFromCmd(cmd), timeout)
			if err != nil {
				return fmt.Errorf("failed to discover: %w", err)
			}

			if len(services) == 0 {
				if !parseable {
					fmt.Println("No reeflightd instances found")
				}
				return nil
			}

			if parseable {
				for _, svc := range services {
					fmt.Printf("instance=%q url=%q version=%q channels=%d auth=%v\n",
						svc.Instance, svc.URL(), svc.Info.Version, svc.Info.Channels, svc.Info.Auth)
				}
				return nil
			}

			data := pterm.TableData{{"Instance", "URL", "Version", "Channels", "Auth"}}
			for _, svc := range services {
				data = append(data, []string{
					svc.Instance,
					svc.URL(),
					svc.Info.Version,
					strconv.Itoa(svc.Info.Channels),
					strconv.FormatBool(svc.Info.Auth),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Second, "How long to wait for answers")
	return cmd
}
