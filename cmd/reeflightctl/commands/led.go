package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// parseInts parses every argument as a decimal integer
func parseInts(args []string, what string) ([]int, error) {
	values := make([]int, len(args))
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be an integer", what, arg)
		}
		values[i] = v
	}
	return values, nil
}

// newStatusCommand creates the status command
func newStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show LED, thermal and power status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			status, err := c.GetStatus()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			sections := []struct {
				name   string
				title  string
				fields []field
			}{
				{"led", "LED", ledFields},
				{"thermal", "Thermal", thermalFields},
				{"power", "Power", powerFields},
			}
			for _, s := range sections {
				obj, _ := status[s.name].(map[string]any)
				if obj == nil {
					continue
				}
				if parseable {
					fmt.Printf("section=%q %s\n", s.name, parseableLine(obj, s.fields))
					continue
				}
				fmt.Println(s.title)
				if err := renderObject(obj, s.fields, false); err != nil {
					return err
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newSettingsCommand creates the settings command
func newSettingsCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the stored LED settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			settings, err := c.GetSettings()
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}
			return renderObject(settings, settingsFields, parseable)
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newModeCommand creates the mode command
func newModeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "mode <normal|dimming|nightlight|preview>",
		Short:     "Switch the LED mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"normal", "dimming", "nightlight", "preview"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			status, err := c.SetMode(strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("failed to set mode: %w", err)
			}
			fmt.Printf("Mode: %s\n", formatValue(status["mode"]))
			return nil
		},
	}
}

// newColorCommand creates the color command
func newColorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "color <power>...",
		Short: "Set the color of the current mode, one power (0-100) per channel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, err := parseInts(args, "power")
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			status, err := c.SetColor(color)
			if err != nil {
				return fmt.Errorf("failed to set color: %w", err)
			}
			fmt.Printf("Color: %s\n", formatValue(status["color"]))
			return nil
		},
	}
}

// newChannelCommand creates the channel command
func newChannelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channel <channel> <power>",
		Short: "Set the power (0-100) of a single channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseInts(args, "value")
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			if err := c.SetChannelPower(values[0], values[1]); err != nil {
				return fmt.Errorf("failed to set channel %d: %w", values[0], err)
			}
			fmt.Printf("Channel %d set to %d\n", values[0], values[1])
			return nil
		},
	}
}

// newBlankCommand creates the blank or unblank command
func newBlankCommand(blank bool) *cobra.Command {
	use, short := "blank", "Turn the LED output off without changing mode"
	if !blank {
		use, short = "unblank", "Restore the LED output after blank"
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
			status, err := c.SetBlank(blank)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			fmt.Printf("Blank: %s\n", formatValue(status["blank"]))
			return nil
		},
	}
}

// newCorrectionCommand creates the correction command
func newCorrectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "correction <on|off> [cie1931|gamma|log|exp|linear]",
		Short: "Enable or disable perceptual brightness correction",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			curve := ""
			if len(args) > 1 {
				curve = strings.ToLower(args[1])
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			if err := c.SetCorrection(enabled, curve); err != nil {
				return fmt.Errorf("failed to set correction: %w", err)
			}
			fmt.Printf("Correction: %v\n", enabled)
			return nil
		},
	}
}

// parseOnOff parses on/off style arguments
func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "enable", "enabled", "1":
		return true, nil
	case "off", "false", "disable", "disabled", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: expected on or off", arg)
}
