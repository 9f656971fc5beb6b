package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPowerCommand creates the power command
func NewPowerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power",
		Short: "Control the light's power rail",
	}

	cmd.AddCommand(
		newPowerSetCommand(true),
		newPowerSetCommand(false),
		newPowerStatusCommand(),
	)

	return cmd
}

// newPowerSetCommand creates the power on or off command
func newPowerSetCommand(on bool) *cobra.Command {
	use, short := "on", "Switch the power rail on"
	if !on {
		use, short = "off", "Switch the power rail off"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			state, err := c.SetPower(on)
			if err != nil {
				return fmt.Errorf("failed to switch power %s: %w", use, err)
			}
			fmt.Printf("Power on: %s\n", formatValue(state["on"]))
			return nil
		},
	}
}

// newPowerStatusCommand creates the power status command
func newPowerStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the power rail state and last emergency shutdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			state, err := c.GetPower()
			if err != nil {
				return fmt.Errorf("failed to get power state: %w", err)
			}
			return renderObject(state, powerFields, parseable)
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
