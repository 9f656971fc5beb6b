package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// field is one labelled property of a status object.
type field struct {
	key   string
	label string
}

var ledFields = []field{
	{"mode", "Mode"},
	{"color", "Color"},
	{"duties", "Duties"},
	{"blank", "Blank"},
	{"fading", "Fading"},
	{"resume_mode", "Resume Mode"},
	{"color_to_resume", "Resume Color"},
	{"nightlight_remaining", "Nightlight Remaining"},
	{"preview_clock", "Preview Clock"},
}

var settingsFields = []field{
	{"channels", "Channels"},
	{"duty_max", "Duty Max"},
	{"scheduler_enabled", "Scheduler"},
	{"manual_color", "Manual Color"},
	{"manual_override", "Manual Override"},
	{"nightlight_duration", "Nightlight Duration"},
	{"nightlight_color", "Nightlight Color"},
	{"correction_enabled", "Correction"},
	{"correction", "Curve"},
}

var thermalFields = []field{
	{"temperature", "Temperature"},
	{"sensor_fault", "Sensor Fault"},
	{"fan_mode", "Fan Mode"},
	{"fan_power", "Fan Power"},
	{"fan_manual_power", "Fan Manual Power"},
	{"overheat_count", "Overheat Count"},
	{"keep_temp", "Keep Temp"},
	{"overheated_temp", "Overheated Temp"},
	{"kp", "Kp"},
	{"ki", "Ki"},
	{"kd", "Kd"},
}

var powerFields = []field{
	{"on", "On"},
	{"shutdowns", "Shutdowns"},
	{"shutdown_reason", "Last Shutdown Reason"},
	{"shutdown_at", "Last Shutdown"},
}

// formatValue renders a decoded JSON value for display
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	case []int:
		return joinInts(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// formatInstant renders seconds since midnight as HH:MM:SS
func formatInstant(instant uint32) string {
	return fmt.Sprintf("%02d:%02d:%02d", instant/3600, instant%3600/60, instant%60)
}

// formatSeconds renders a duration given in seconds
func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

// parseableLine returns the key=value form of obj, in fields order.
// Properties missing from obj are skipped.
func parseableLine(obj map[string]any, fields []field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := obj[f.key]
		if !ok {
			continue
		}
		switch v.(type) {
		case string, []any:
			parts = append(parts, fmt.Sprintf("%s=%q", f.key, formatValue(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%s", f.key, formatValue(v)))
		}
	}
	return strings.Join(parts, " ")
}

// objectTableData returns a property/value table of obj
func objectTableData(obj map[string]any, fields []field) pterm.TableData {
	data := pterm.TableData{{"Property", "Value"}}
	for _, f := range fields {
		if v, ok := obj[f.key]; ok {
			data = append(data, []string{f.label, formatValue(v)})
		}
	}
	return data
}

// renderObject prints obj as a table, or as one key=value line when
// parseable is set.
func renderObject(obj map[string]any, fields []field, parseable bool) error {
	if parseable {
		fmt.Println(parseableLine(obj, fields))
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(objectTableData(obj, fields)).Render()
}
