package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPClient represents an HTTP connection to reeflightd
type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ClientInterface = (*HTTPClient)(nil)

// NewHTTP creates a new HTTP client
func NewHTTP(logger *slog.Logger, baseURL string, apiKey string) *HTTPClient {
	// Ensure baseURL doesn't have trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPClient{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs an HTTP request and decodes the JSON response
func (c *HTTPClient) request(method, path string, body any, resp any) error {
	url := c.baseURL + path
	c.logger.Debug("HTTP request", "method", method, "url", url)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	// Execute request
	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	// Read response body
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Check for error status codes
	if httpResp.StatusCode >= 400 {
		c.logger.Debug("HTTP error response", "status", httpResp.StatusCode, "body", string(respBody))
		return fmt.Errorf("HTTP error %d: %s", httpResp.StatusCode, errorDetail(respBody))
	}

	// Decode response if needed
	if resp != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, resp); err != nil {
			c.logger.Error("Failed to decode response", "error", err, "body", string(respBody))
			return fmt.Errorf("failed to decode response: %w", err)
		}
		c.logger.Debug("Received response", "response", resp)
	}

	return nil
}

// errorDetail extracts the message of an RFC 9457 problem document,
// falling back to the raw body.
func errorDetail(body []byte) string {
	var problem struct {
		Detail string `json:"detail"`
		Errors []struct {
			Message  string `json:"message"`
			Location string `json:"location"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &problem); err != nil || problem.Detail == "" {
		return strings.TrimSpace(string(body))
	}
	msg := problem.Detail
	for _, e := range problem.Errors {
		msg += "; " + e.Location + ": " + e.Message
	}
	return msg
}

func (c *HTTPClient) requestMap(method, path string, body any) (map[string]any, error) {
	var resp map[string]any
	if err := c.request(method, path, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetVersion returns the running daemon's version information.
func (c *HTTPClient) GetVersion() (map[string]any, error) {
	return c.requestMap(http.MethodGet, "/api/v1/version", nil)
}

// GetStatus returns the LED, thermal and power state, gathered from their
// endpoints.
func (c *HTTPClient) GetStatus() (map[string]any, error) {
	ledStatus, err := c.requestMap(http.MethodGet, "/api/v1/led/status", nil)
	if err != nil {
		return nil, err
	}
	thermal, err := c.GetThermal()
	if err != nil {
		return nil, err
	}
	power, err := c.GetPower()
	if err != nil {
		return nil, err
	}
	return map[string]any{"led": ledStatus, "thermal": thermal, "power": power}, nil
}

// GetSettings returns the persisted LED settings.
func (c *HTTPClient) GetSettings() (map[string]any, error) {
	return c.requestMap(http.MethodGet, "/api/v1/led/settings", nil)
}

// SetMode switches the LED mode and returns the LED status.
func (c *HTTPClient) SetMode(mode string) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/led/mode", map[string]any{"mode": mode})
}

// SetColor sets the color of the current mode and returns the LED status.
func (c *HTTPClient) SetColor(color []int) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/led/color", map[string]any{"color": color})
}

// SetChannelPower sets a single channel of the current color.
func (c *HTTPClient) SetChannelPower(channel, power int) error {
	return c.request(http.MethodPut, fmt.Sprintf("/api/v1/led/channels/%d", channel), map[string]any{"power": power}, nil)
}

// GetSchedule returns the daily schedule.
func (c *HTTPClient) GetSchedule() (*Schedule, error) {
	var s Schedule
	if err := c.request(http.MethodGet, "/api/v1/led/schedule", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSchedule replaces the daily schedule.
func (c *HTTPClient) SetSchedule(keyframes []Keyframe) (*Schedule, error) {
	if keyframes == nil {
		keyframes = []Keyframe{}
	}
	var s Schedule
	if err := c.request(http.MethodPut, "/api/v1/led/schedule", map[string]any{"keyframes": keyframes}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSchedulerEnabled turns the scheduler on or off.
func (c *HTTPClient) SetSchedulerEnabled(enabled bool) (*Schedule, error) {
	var s Schedule
	if err := c.request(http.MethodPut, "/api/v1/led/scheduler", map[string]any{"enabled": enabled}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetNightlightDuration sets the nightlight length in seconds.
func (c *HTTPClient) SetNightlightDuration(seconds int) error {
	return c.request(http.MethodPut, "/api/v1/led/nightlight", map[string]any{"duration": seconds}, nil)
}

// GetNightlightRemaining returns the seconds left in NIGHTLIGHT mode.
func (c *HTTPClient) GetNightlightRemaining() (int, error) {
	var resp struct {
		Remaining int `json:"remaining"`
	}
	if err := c.request(http.MethodGet, "/api/v1/led/nightlight", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Remaining, nil
}

// SetNightlightColor sets the color held in NIGHTLIGHT mode.
func (c *HTTPClient) SetNightlightColor(color []int) error {
	return c.request(http.MethodPut, "/api/v1/led/nightlight/color", map[string]any{"color": color}, nil)
}

// SetCorrection enables or disables perceptual correction.
func (c *HTTPClient) SetCorrection(enabled bool, curve string) error {
	body := map[string]any{"enabled": enabled}
	if curve != "" {
		body["curve"] = curve
	}
	return c.request(http.MethodPut, "/api/v1/led/correction", body, nil)
}

// SetBlank blanks or unblanks the LED output and returns the LED status.
func (c *HTTPClient) SetBlank(blank bool) (map[string]any, error) {
	return c.requestMap(http.MethodPost, "/api/v1/led/blank", map[string]any{"blank": blank})
}

// GetThermal returns the thermal loop state.
func (c *HTTPClient) GetThermal() (map[string]any, error) {
	return c.requestMap(http.MethodGet, "/api/v1/thermal", nil)
}

// SetPID sets the PID gains, scaled by 100.
func (c *HTTPClient) SetPID(kp, ki, kd int) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/thermal/pid", map[string]any{"kp": kp, "ki": ki, "kd": kd})
}

// SetKeepTemp sets the temperature setpoint.
func (c *HTTPClient) SetKeepTemp(temp int) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/thermal/temps", map[string]any{"keep_temp": temp})
}

// SetOverheatedTemp sets the emergency shutdown threshold.
func (c *HTTPClient) SetOverheatedTemp(temp int) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/thermal/temps", map[string]any{"overheated_temp": temp})
}

// SetFanMode sets the fan mode.
func (c *HTTPClient) SetFanMode(mode string) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/thermal/fan", map[string]any{"mode": mode})
}

// SetFanManualPower sets the fan power used in manual mode.
func (c *HTTPClient) SetFanManualPower(power int) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/thermal/fan", map[string]any{"manual_power": power})
}

// GetPower returns the power rail state.
func (c *HTTPClient) GetPower() (map[string]any, error) {
	return c.requestMap(http.MethodGet, "/api/v1/power", nil)
}

// SetPower turns the power rail on or off.
func (c *HTTPClient) SetPower(on bool) (map[string]any, error) {
	return c.requestMap(http.MethodPut, "/api/v1/power", map[string]any{"on": on})
}

// GetLogLevel returns the daemon's log level.
func (c *HTTPClient) GetLogLevel() (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request(http.MethodGet, "/api/v1/logging/level", nil, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}

// SetLogLevel changes the daemon's log level.
func (c *HTTPClient) SetLogLevel(level string) (string, error) {
	var resp struct {
		Level string `json:"level"`
	}
	if err := c.request(http.MethodPut, "/api/v1/logging/level", map[string]any{"level": level}, &resp); err != nil {
		return "", err
	}
	return resp.Level, nil
}
