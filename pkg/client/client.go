// Package client talks to a running reeflightd, either over its Unix
// socket or over the HTTP API.
package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/reeflightd/internal/config"
)

var dial = net.Dial

// requestTimeout bounds a single socket round trip.
const requestTimeout = 10 * time.Second

// ClientInterface defines the methods for interacting with reeflightd.
// Both the socket and the HTTP client implement it, so the CLI works over
// either transport.
type ClientInterface interface {
	GetVersion() (map[string]any, error)
	GetStatus() (map[string]any, error)
	GetSettings() (map[string]any, error)
	SetMode(mode string) (map[string]any, error)
	SetColor(color []int) (map[string]any, error)
	SetChannelPower(channel, power int) error
	GetSchedule() (*Schedule, error)
	SetSchedule(keyframes []Keyframe) (*Schedule, error)
	SetSchedulerEnabled(enabled bool) (*Schedule, error)
	SetNightlightDuration(seconds int) error
	GetNightlightRemaining() (int, error)
	SetNightlightColor(color []int) error
	SetCorrection(enabled bool, curve string) error
	SetBlank(blank bool) (map[string]any, error)
	GetThermal() (map[string]any, error)
	SetPID(kp, ki, kd int) (map[string]any, error)
	SetKeepTemp(temp int) (map[string]any, error)
	SetOverheatedTemp(temp int) (map[string]any, error)
	SetFanMode(mode string) (map[string]any, error)
	SetFanManualPower(power int) (map[string]any, error)
	GetPower() (map[string]any, error)
	SetPower(on bool) (map[string]any, error)
	GetLogLevel() (string, error)
	SetLogLevel(level string) (string, error)
}

// Keyframe is one point of the daily schedule.
type Keyframe struct {
	Instant uint32 `json:"instant"`
	Color   []int  `json:"color"`
}

// Schedule is the daily schedule and whether NORMAL mode follows it.
type Schedule struct {
	Enabled   bool       `json:"enabled"`
	Keyframes []Keyframe `json:"keyframes"`
}

// Client represents a connection to reeflightd over its Unix socket
type Client struct {
	logger *slog.Logger
	socket string
}

var _ ClientInterface = (*Client)(nil)

// New creates a new socket client. An empty socket selects the default
// runtime socket path.
func New(logger *slog.Logger, socket string) *Client {
	if socket == "" {
		socket = config.GetRuntimeSocketPath()
		logger.Debug("Using default socket path", "socket", socket)
	} else {
		logger.Debug("Using provided socket path", "socket", socket)
	}

	return &Client{
		logger: logger,
		socket: socket,
	}
}

// request sends one action to reeflightd and decodes the response onto
// resp, which may be nil.
func (c *Client) request(action string, data map[string]any, resp any) error {
	id := uuid.NewString()
	req := map[string]any{"action": action, "id": id}
	if data != nil {
		req["data"] = data
	}

	c.logger.Debug("Connecting to socket", "socket", c.socket)
	conn, err := dial("unix", c.socket)
	if err != nil {
		c.logger.Error("Failed to connect to socket", "error", err, "socket", c.socket)
		return fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	c.logger.Debug("Encoding request", "action", action, "id", id)
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		c.logger.Error("Failed to encode request", "error", err)
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		c.logger.Error("Failed to decode response", "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}

	var envelope struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.ID != "" && envelope.ID != id {
		return fmt.Errorf("response id %q does not match request id %q", envelope.ID, id)
	}
	if envelope.Error != "" {
		c.logger.Debug("Server returned error", "action", action, "error", envelope.Error)
		return fmt.Errorf("server error: %s", envelope.Error)
	}

	if resp != nil {
		if err := json.Unmarshal(raw, resp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	c.logger.Debug("Received response", "action", action)
	return nil
}

// requestMap sends an action and returns the object stored under key in
// the response.
func (c *Client) requestMap(action string, data map[string]any, key string) (map[string]any, error) {
	var resp map[string]any
	if err := c.request(action, data, &resp); err != nil {
		return nil, err
	}
	m, ok := resp[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response to %s has no %s object", action, key)
	}
	return m, nil
}

// GetVersion returns the running daemon's version information.
func (c *Client) GetVersion() (map[string]any, error) {
	return c.requestMap("version", nil, "version")
}

// GetStatus returns the LED, thermal and power state in one response.
func (c *Client) GetStatus() (map[string]any, error) {
	var resp map[string]any
	if err := c.request("get_status", nil, &resp); err != nil {
		return nil, err
	}
	delete(resp, "status")
	delete(resp, "id")
	return resp, nil
}

// GetSettings returns the persisted LED settings.
func (c *Client) GetSettings() (map[string]any, error) {
	return c.requestMap("get_settings", nil, "settings")
}

// SetMode switches the LED mode and returns the LED status.
func (c *Client) SetMode(mode string) (map[string]any, error) {
	return c.requestMap("set_mode", map[string]any{"mode": mode}, "led")
}

// SetColor sets the color of the current mode and returns the LED status.
func (c *Client) SetColor(color []int) (map[string]any, error) {
	return c.requestMap("set_color", map[string]any{"color": color}, "led")
}

// SetChannelPower sets a single channel of the current color.
func (c *Client) SetChannelPower(channel, power int) error {
	return c.request("set_channel_power", map[string]any{"channel": channel, "power": power}, nil)
}

// GetSchedule returns the daily schedule.
func (c *Client) GetSchedule() (*Schedule, error) {
	var s Schedule
	if err := c.request("get_schedule", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSchedule replaces the daily schedule.
func (c *Client) SetSchedule(keyframes []Keyframe) (*Schedule, error) {
	if keyframes == nil {
		keyframes = []Keyframe{}
	}
	var s Schedule
	if err := c.request("set_schedule", map[string]any{"keyframes": keyframes}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSchedulerEnabled turns the scheduler on or off.
func (c *Client) SetSchedulerEnabled(enabled bool) (*Schedule, error) {
	var s Schedule
	if err := c.request("set_scheduler_enabled", map[string]any{"enabled": enabled}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetNightlightDuration sets the nightlight length in seconds.
func (c *Client) SetNightlightDuration(seconds int) error {
	return c.request("set_nightlight_duration", map[string]any{"duration": seconds}, nil)
}

// GetNightlightRemaining returns the seconds left in NIGHTLIGHT mode.
func (c *Client) GetNightlightRemaining() (int, error) {
	var resp struct {
		Remaining int `json:"remaining"`
	}
	if err := c.request("get_nightlight_remaining", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Remaining, nil
}

// SetNightlightColor sets the color held in NIGHTLIGHT mode.
func (c *Client) SetNightlightColor(color []int) error {
	return c.request("set_nightlight_color", map[string]any{"color": color}, nil)
}

// SetCorrection enables or disables perceptual correction. An empty curve
// keeps the configured one.
func (c *Client) SetCorrection(enabled bool, curve string) error {
	data := map[string]any{"enabled": enabled}
	if curve != "" {
		data["curve"] = curve
	}
	return c.request("set_correction", data, nil)
}

// SetBlank blanks or unblanks the LED output and returns the LED status.
func (c *Client) SetBlank(blank bool) (map[string]any, error) {
	return c.requestMap("blank", map[string]any{"blank": blank}, "led")
}

// GetThermal returns the thermal loop state.
func (c *Client) GetThermal() (map[string]any, error) {
	return c.requestMap("get_thermal", nil, "thermal")
}

// SetPID sets the PID gains, scaled by 100.
func (c *Client) SetPID(kp, ki, kd int) (map[string]any, error) {
	return c.requestMap("set_pid", map[string]any{"kp": kp, "ki": ki, "kd": kd}, "thermal")
}

// SetKeepTemp sets the temperature setpoint.
func (c *Client) SetKeepTemp(temp int) (map[string]any, error) {
	return c.requestMap("set_keep_temp", map[string]any{"temp": temp}, "thermal")
}

// SetOverheatedTemp sets the emergency shutdown threshold.
func (c *Client) SetOverheatedTemp(temp int) (map[string]any, error) {
	return c.requestMap("set_overheated_temp", map[string]any{"temp": temp}, "thermal")
}

// SetFanMode sets the fan mode.
func (c *Client) SetFanMode(mode string) (map[string]any, error) {
	return c.requestMap("set_fan_mode", map[string]any{"mode": mode}, "thermal")
}

// SetFanManualPower sets the fan power used in manual mode.
func (c *Client) SetFanManualPower(power int) (map[string]any, error) {
	return c.requestMap("set_fan_manual_power", map[string]any{"power": power}, "thermal")
}

// GetPower returns the power rail state.
func (c *Client) GetPower() (map[string]any, error) {
	return c.requestMap("get_power", nil, "power")
}

// SetPower turns the power rail on or off.
func (c *Client) SetPower(on bool) (map[string]any, error) {
	return c.requestMap("set_power", map[string]any{"on": on}, "power")
}

// GetLogLevel returns the daemon's log level.
func (c *Client) GetLogLevel() (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request("get_level", nil, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}

// SetLogLevel changes the daemon's log level.
func (c *Client) SetLogLevel(level string) (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request("set_level", map[string]any{"level": level}, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}
