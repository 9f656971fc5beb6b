package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/reeflightd/pkg/client"
)

const secondsPerDay = 24 * 60 * 60

// scheduleFile is the YAML form of a schedule. Times are "HH:MM",
// "HH:MM:SS" or seconds since midnight.
type scheduleFile struct {
	Enabled   *bool               `yaml:"enabled,omitempty"`
	Keyframes []scheduleFileEntry `yaml:"keyframes"`
}

type scheduleFileEntry struct {
	Time  any   `yaml:"time"`
	Color []int `yaml:"color,flow"`
}

// parseInstant converts a schedule file time to seconds since midnight
func parseInstant(v any) (uint32, error) {
	var seconds int
	switch t := v.(type) {
	case int:
		seconds = t
	case string:
		parts := strings.Split(t, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return 0, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", t)
		}
		limits := []int{24, 60, 60}
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 || n >= limits[i] {
				return 0, fmt.Errorf("invalid time %q", t)
			}
			seconds = seconds*60 + n
		}
		if len(parts) == 2 {
			seconds *= 60
		}
	default:
		return 0, fmt.Errorf("invalid time %v", v)
	}
	if seconds < 0 || seconds >= secondsPerDay {
		return 0, fmt.Errorf("time %d is outside the day", seconds)
	}
	return uint32(seconds), nil
}

// loadScheduleFile reads and validates a schedule file
func loadScheduleFile(path string) (*scheduleFile, []client.Keyframe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read schedule file: %w", err)
	}
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse schedule file: %w", err)
	}
	keyframes := make([]client.Keyframe, len(file.Keyframes))
	for i, entry := range file.Keyframes {
		instant, err := parseInstant(entry.Time)
		if err != nil {
			return nil, nil, fmt.Errorf("keyframe %d: %w", i, err)
		}
		keyframes[i] = client.Keyframe{Instant: instant, Color: entry.Color}
	}
	return &file, keyframes, nil
}

// scheduleToFile converts a schedule to its YAML file form
func scheduleToFile(s *client.Schedule) scheduleFile {
	enabled := s.Enabled
	file := scheduleFile{Enabled: &enabled, Keyframes: make([]scheduleFileEntry, len(s.Keyframes))}
	for i, kf := range s.Keyframes {
		file.Keyframes[i] = scheduleFileEntry{Time: formatInstant(kf.Instant), Color: kf.Color}
	}
	return file
}

// NewScheduleCommand creates the schedule command
func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the daily lighting schedule",
	}

	cmd.AddCommand(
		newScheduleGetCommand(),
		newScheduleSetCommand(),
		newScheduleClearCommand(),
		newSchedulerToggleCommand(true),
		newSchedulerToggleCommand(false),
	)

	return cmd
}

// newScheduleGetCommand creates the schedule get command
func newScheduleGetCommand() *cobra.Command {
	var parseable, asYAML bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the daily schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			s, err := c.GetSchedule()
			if err != nil {
				return fmt.Errorf("failed to get schedule: %w", err)
			}

			switch {
			case asYAML:
				out, err := yaml.Marshal(scheduleToFile(s))
				if err != nil {
					return fmt.Errorf("failed to encode schedule: %w", err)
				}
				fmt.Print(string(out))
			case parseable:
				fmt.Printf("enabled=%v keyframes=%d\n", s.Enabled, len(s.Keyframes))
				for _, kf := range s.Keyframes {
					fmt.Printf("instant=%d time=%q color=%q\n", kf.Instant, formatInstant(kf.Instant), joinInts(kf.Color))
				}
			default:
				fmt.Printf("Scheduler enabled: %v\n", s.Enabled)
				if len(s.Keyframes) == 0 {
					fmt.Println("No keyframes")
					return nil
				}
				data := pterm.TableData{{"Time", "Color"}}
				for _, kf := range s.Keyframes {
					data = append(data, []string{formatInstant(kf.Instant), joinInts(kf.Color)})
				}
				return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Output as a schedule file accepted by 'schedule set'")
	return cmd
}

// newScheduleSetCommand creates the schedule set command
func newScheduleSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <file.yaml>",
		Short: "Replace the daily schedule with the keyframes of a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, keyframes, err := loadScheduleFile(args[0])
			if err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			s, err := c.SetSchedule(keyframes)
			if err != nil {
				return fmt.Errorf("failed to set schedule: %w", err)
			}
			if file.Enabled != nil && *file.Enabled != s.Enabled {
				if s, err = c.SetSchedulerEnabled(*file.Enabled); err != nil {
					return fmt.Errorf("failed to set scheduler: %w", err)
				}
			}
			fmt.Printf("Schedule set: %d keyframes, scheduler enabled: %v\n", len(s.Keyframes), s.Enabled)
			return nil
		},
	}
}

// newScheduleClearCommand creates the schedule clear command
func newScheduleClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every keyframe from the daily schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			if _, err := c.SetSchedule(nil); err != nil {
				return fmt.Errorf("failed to clear schedule: %w", err)
			}
			fmt.Println("Schedule cleared")
			return nil
		},
	}
}

// newSchedulerToggleCommand creates the schedule enable or disable command
func newSchedulerToggleCommand(enable bool) *cobra.Command {
	use, short := "enable", "Make NORMAL mode follow the daily schedule"
	if !enable {
		use, short = "disable", "Make NORMAL mode hold the manual color"
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
			s, err := c.SetSchedulerEnabled(enable)
			if err != nil {
				return fmt.Errorf("failed to %s scheduler: %w", use, err)
			}
			fmt.Printf("Scheduler enabled: %v\n", s.Enabled)
			return nil
		},
	}
}
