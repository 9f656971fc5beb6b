package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// parseDurationSeconds accepts plain seconds or a Go duration such as 30m
func parseDurationSeconds(arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds or a duration like 30m", arg)
	}
	return int(d / time.Second), nil
}

// NewNightlightCommand creates the nightlight command
func NewNightlightCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nightlight",
		Short: "Manage the timed nightlight",
	}

	cmd.AddCommand(
		newNightlightDurationCommand(),
		newNightlightRemainingCommand(),
		newNightlightColorCommand(),
	)

	return cmd
}

// newNightlightDurationCommand creates the nightlight duration command
func newNightlightDurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duration <seconds|duration>",
		Short: "Set how long NIGHTLIGHT mode lasts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := parseDurationSeconds(args[0])
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			if err := c.SetNightlightDuration(seconds); err != nil {
				return fmt.Errorf("failed to set nightlight duration: %w", err)
			}
			fmt.Printf("Nightlight duration: %s\n", formatSeconds(seconds))
			return nil
		},
	}
}

// newNightlightRemainingCommand creates the nightlight remaining command
func newNightlightRemainingCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "remaining",
		Short: "Show the time left in NIGHTLIGHT mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			remaining, err := c.GetNightlightRemaining()
			if err != nil {
				return fmt.Errorf("failed to get nightlight remaining: %w", err)
			}
			if parseable {
				fmt.Printf("remaining=%d\n", remaining)
				return nil
			}
			fmt.Printf("Nightlight remaining: %s\n", formatSeconds(remaining))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newNightlightColorCommand creates the nightlight color command
func newNightlightColorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "color <power>...",
		Short: "Set the color held in NIGHTLIGHT mode",
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
			if err := c.SetNightlightColor(color); err != nil {
				return fmt.Errorf("failed to set nightlight color: %w", err)
			}
			fmt.Printf("Nightlight color: %s\n", joinInts(color))
			return nil
		},
	}
}
