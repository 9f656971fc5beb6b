package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewThermalCommand creates the thermal command
func NewThermalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thermal",
		Short: "Inspect and tune the thermal loop",
	}

	fan := &cobra.Command{
		Use:   "fan",
		Short: "Control the fan",
	}
	fan.AddCommand(newFanModeCommand(), newFanPowerCommand())

	cmd.AddCommand(
		newThermalStatusCommand(),
		newThermalPIDCommand(),
		newThermalTempCommand("keep", "Set the temperature the fan holds the heat sink at"),
		newThermalTempCommand("overheat", "Set the temperature that shuts the light down"),
		fan,
	)

	return cmd
}

// printThermal prints the thermal state returned by a setter
func printThermal(cmd *cobra.Command, thermal map[string]any) error {
	parseable, _ := cmd.Flags().GetBool("parseable")
	return renderObject(thermal, thermalFields, parseable)
}

// newThermalStatusCommand creates the thermal status command
func newThermalStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show temperature, fan and PID settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			thermal, err := c.GetThermal()
			if err != nil {
				return fmt.Errorf("failed to get thermal state: %w", err)
			}
			return printThermal(cmd, thermal)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newThermalPIDCommand creates the thermal pid command
func newThermalPIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pid <kp> <ki> <kd>",
		Short: "Set the PID gains, scaled by 100",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			gains, err := parseInts(args, "gain")
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			thermal, err := c.SetPID(gains[0], gains[1], gains[2])
			if err != nil {
				return fmt.Errorf("failed to set PID gains: %w", err)
			}
			return printThermal(cmd, thermal)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newThermalTempCommand creates the thermal keep or overheat command
func newThermalTempCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <celsius>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			temps, err := parseInts(args, "temperature")
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			set := c.SetKeepTemp
			if use == "overheat" {
				set = c.SetOverheatedTemp
			}
			thermal, err := set(temps[0])
			if err != nil {
				return fmt.Errorf("failed to set %s temperature: %w", use, err)
			}
			return printThermal(cmd, thermal)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newFanModeCommand creates the thermal fan mode command
func newFanModeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "mode <disabled|manual|pid>",
		Short:     "Set the fan mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"disabled", "manual", "pid"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			thermal, err := c.SetFanMode(strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("failed to set fan mode: %w", err)
			}
			return printThermal(cmd, thermal)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newFanPowerCommand creates the thermal fan power command
func newFanPowerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power <0-100>",
		Short: "Set the fan power used in manual mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			power, err := parseInts(args, "power")
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			thermal, err := c.SetFanManualPower(power[0])
			if err != nil {
				return fmt.Errorf("failed to set fan power: %w", err)
			}
			return printThermal(cmd, thermal)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
