package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/reeflightd/pkg/client"
)

// mockClient implements client.ClientInterface for CLI tests. It records
// every call and returns static data.
type mockClient struct {
	calls    []string
	err      error
	schedule *client.Schedule
}

var _ client.ClientInterface = (*mockClient)(nil)

func newMockClient() *mockClient {
	return &mockClient{
		schedule: &client.Schedule{
			Enabled: true,
			Keyframes: []client.Keyframe{
				{Instant: 8 * 3600, Color: []int{0, 0, 0, 0}},
				{Instant: 12*3600 + 30*60, Color: []int{80, 60, 40, 20}},
			},
		},
	}
}

func (m *mockClient) record(format string, args ...any) error {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	return m.err
}

func ledStatus() map[string]any {
	return map[string]any{
		"mode":                 "NORMAL",
		"color":                []any{float64(80), float64(60), float64(40), float64(20)},
		"duties":               []any{float64(2000), float64(1200), float64(600), float64(150)},
		"blank":                false,
		"fading":               false,
		"resume_mode":          "NORMAL",
		"nightlight_remaining": float64(0),
	}
}

func thermalState() map[string]any {
	return map[string]any{
		"temperature":      float64(41),
		"sensor_fault":     false,
		"fan_mode":         "pid",
		"fan_power":        float64(35),
		"fan_manual_power": float64(75),
		"overheat_count":   float64(0),
		"keep_temp":        float64(45),
		"overheated_temp":  float64(65),
		"kp":               float64(200),
		"ki":               float64(20),
		"kd":               float64(100),
	}
}

func powerState() map[string]any {
	return map[string]any{"on": true, "shutdowns": float64(1), "shutdown_reason": "overheated"}
}

func (m *mockClient) GetVersion() (map[string]any, error) {
	return map[string]any{"version": "1.2.3", "commit": "abc123", "build_date": "2026-01-01"}, m.record("GetVersion")
}

func (m *mockClient) GetStatus() (map[string]any, error) {
	return map[string]any{"led": ledStatus(), "thermal": thermalState(), "power": powerState()}, m.record("GetStatus")
}

func (m *mockClient) GetSettings() (map[string]any, error) {
	return map[string]any{
		"channels":            float64(4),
		"duty_max":            float64(4095),
		"scheduler_enabled":   true,
		"nightlight_duration": float64(3600),
		"correction":          "cie1931",
	}, m.record("GetSettings")
}

func (m *mockClient) SetMode(mode string) (map[string]any, error) {
	st := ledStatus()
	st["mode"] = mode
	return st, m.record("SetMode %s", mode)
}

func (m *mockClient) SetColor(color []int) (map[string]any, error) {
	st := ledStatus()
	st["color"] = color
	return st, m.record("SetColor %v", color)
}

func (m *mockClient) SetChannelPower(channel, power int) error {
	return m.record("SetChannelPower %d %d", channel, power)
}

func (m *mockClient) GetSchedule() (*client.Schedule, error) {
	return m.schedule, m.record("GetSchedule")
}

func (m *mockClient) SetSchedule(keyframes []client.Keyframe) (*client.Schedule, error) {
	m.schedule = &client.Schedule{Enabled: m.schedule.Enabled, Keyframes: keyframes}
	return m.schedule, m.record("SetSchedule %v", keyframes)
}

func (m *mockClient) SetSchedulerEnabled(enabled bool) (*client.Schedule, error) {
	m.schedule = &client.Schedule{Enabled: enabled, Keyframes: m.schedule.Keyframes}
	return m.schedule, m.record("SetSchedulerEnabled %v", enabled)
}

func (m *mockClient) SetNightlightDuration(seconds int) error {
	return m.record("SetNightlightDuration %d", seconds)
}

func (m *mockClient) GetNightlightRemaining() (int, error) {
	return 1500, m.record("GetNightlightRemaining")
}

func (m *mockClient) SetNightlightColor(color []int) error {
	return m.record("SetNightlightColor %v", color)
}

func (m *mockClient) SetCorrection(enabled bool, curve string) error {
	return m.record("SetCorrection %v %q", enabled, curve)
}

func (m *mockClient) SetBlank(blank bool) (map[string]any, error) {
	st := ledStatus()
	st["blank"] = blank
	return st, m.record("SetBlank %v", blank)
}

func (m *mockClient) GetThermal() (map[string]any, error) {
	return thermalState(), m.record("GetThermal")
}

func (m *mockClient) SetPID(kp, ki, kd int) (map[string]any, error) {
	return thermalState(), m.record("SetPID %d %d %d", kp, ki, kd)
}

func (m *mockClient) SetKeepTemp(temp int) (map[string]any, error) {
	return thermalState(), m.record("SetKeepTemp %d", temp)
}

func (m *mockClient) SetOverheatedTemp(temp int) (map[string]any, error) {
	return thermalState(), m.record("SetOverheatedTemp %d", temp)
}

func (m *mockClient) SetFanMode(mode string) (map[string]any, error) {
	return thermalState(), m.record("SetFanMode %s", mode)
}

func (m *mockClient) SetFanManualPower(power int) (map[string]any, error) {
	return thermalState(), m.record("SetFanManualPower %d", power)
}

func (m *mockClient) GetPower() (map[string]any, error) {
	return powerState(), m.record("GetPower")
}

func (m *mockClient) SetPower(on bool) (map[string]any, error) {
	return map[string]any{"on": on, "shutdowns": float64(0)}, m.record("SetPower %v", on)
}

func (m *mockClient) GetLogLevel() (string, error) {
	return "info", m.record("GetLogLevel")
}

func (m *mockClient) SetLogLevel(level string) (string, error) {
	return level, m.record("SetLogLevel %s", level)
}

// runCommand executes cmd with args against mock and returns its output
func runCommand(mock client.ClientInterface, cmd *cobra.Command, args ...string) (string, error) {
	var err error
	out := captureStdout(func() {
		cmd.SetContext(context.WithValue(context.Background(), ClientContextKey, mock))
		cmd.SetArgs(args)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		err = cmd.Execute()
	})
	return out, err
}
