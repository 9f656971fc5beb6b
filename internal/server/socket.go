package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net"

	"github.com/jmylchreest/reeflightd/internal/http/handlers"
	"github.com/jmylchreest/reeflightd/internal/ticker"
	"github.com/jmylchreest/reeflightd/internal/utils"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in acceptConnections", "recover", r)
		}
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.logger.Info("Socket listener shutting down")
				return
			default:
				s.logger.Error("Failed to accept connection", "error", err)
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in connection handler", "recover", r)
		}
	}()

	// Create a context that is cancelled when the server shuts down
	ctx, cancel := context.WithCancel(s.rootCtx)
	defer cancel()

	go func() {
		select {
		case <-s.shutdown:
			if uconn, ok := conn.(*net.UnixConn); ok {
				uconn.CloseRead() // Force the read to unblock for shutdown
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}()

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Client disconnected")
			} else {
				s.logger.Error("Failed to read from connection", "error", err)
			}
			return
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("Failed to unmarshal request", "error", err, "request", string(line))
			s.sendError(conn, "", fmt.Sprintf("invalid JSON request: %s", err))
			continue
		}

		action, _ := req["action"].(string)
		id, _ := req["id"].(string)             // Optional request ID for client tracking
		data, _ := req["data"].(map[string]any) // Data payload

		s.logger.Debug("Received request", "action", action, "id", id, "data", data)
		s.dispatch(conn, id, action, data)
	}
}

// dispatch runs one socket action and writes exactly one response.
func (s *Server) dispatch(conn net.Conn, id, action string, data map[string]any) {
	switch action {
	case "ping":
		s.sendResponse(conn, id, map[string]any{"message": "pong"})

	case "version":
		s.sendResponse(conn, id, map[string]any{"version": s.version})

	case "get_status":
		snap := s.snapshot()
		s.sendResponse(conn, id, map[string]any{"led": snap.LED, "thermal": snap.Thermal, "power": snap.Power})

	case "get_loops":
		stats := make([]ticker.Stats, len(s.tasks))
		for i, task := range s.tasks {
			stats[i] = task.Stats()
		}
		s.sendResponse(conn, id, map[string]any{"loops": stats})

	// --- LED ---

	case "get_settings":
		s.sendResponse(conn, id, map[string]any{"settings": s.ledSettings()})

	case "set_mode":
		mode, err := led.ParseMode(stringFromMap(data, "mode"))
		if err != nil {
			s.sendError(conn, id, err.Error())
			return
		}
		if err := s.led.SwitchMode(mode); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to switch mode: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"led": s.ledStatus()})

	case "set_color":
		color, err := colorFromMap(data, "color")
		if err != nil {
			s.sendError(conn, id, err.Error())
			return
		}
		if err := s.led.SetColor(color); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set color: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"led": s.ledStatus()})

	case "set_channel_power":
		ch, ok := intFromMap(data, "channel")
		if !ok {
			s.sendError(conn, id, "missing channel for set_channel_power")
			return
		}
		p, ok := intFromMap(data, "power")
		if !ok || p < 0 || p > led.MaxPower {
			s.sendError(conn, id, fmt.Sprintf("power must be an integer in [0,%d]", led.MaxPower))
			return
		}
		if err := s.led.SetChannelPower(ch, uint8(p)); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set channel %d: %s", ch, err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"channel": ch, "power": p})

	case "get_schedule":
		s.sendResponse(conn, id, s.schedule())

	case "set_schedule":
		var body []handlers.KeyframeBody
		if err := remarshal(data["keyframes"], &body); err != nil {
			s.sendError(conn, id, fmt.Sprintf("invalid keyframes: %s", err))
			return
		}
		items, err := handlers.KeyframesToController(body)
		if err != nil {
			s.sendError(conn, id, fmt.Sprintf("invalid keyframes: %s", err))
			return
		}
		if err := s.led.SetSchedule(items); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set schedule: %s", err))
			return
		}
		s.sendResponse(conn, id, s.schedule())

	case "set_scheduler_enabled":
		enabled, ok := data["enabled"].(bool)
		if !ok {
			s.sendError(conn, id, "missing enabled for set_scheduler_enabled")
			return
		}
		s.led.SetSchedulerEnabled(enabled)
		s.sendResponse(conn, id, s.schedule())

	case "set_nightlight_duration":
		d, ok := intFromMap(data, "duration")
		if !ok || d < 1 || d > math.MaxUint16 {
			s.sendError(conn, id, fmt.Sprintf("duration must be an integer in [1,%d]", math.MaxUint16))
			return
		}
		if err := s.led.SetNightlightDuration(uint16(d)); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set nightlight duration: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"duration": d})

	case "get_nightlight_remaining":
		s.sendResponse(conn, id, map[string]any{"remaining": int(s.led.NightlightRemaining().Seconds())})

	case "set_nightlight_color":
		color, err := colorFromMap(data, "color")
		if err != nil {
			s.sendError(conn, id, err.Error())
			return
		}
		if err := s.led.SetNightlightColor(color); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set nightlight color: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"settings": s.ledSettings()})

	case "set_correction":
		enabled, ok := data["enabled"].(bool)
		if !ok {
			s.sendError(conn, id, "missing enabled for set_correction")
			return
		}
		if err := s.led.SetCorrection(enabled, led.Curve(stringFromMap(data, "curve"))); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set correction: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"settings": s.ledSettings()})

	case "blank":
		blank := true
		if v, ok := data["blank"].(bool); ok {
			blank = v
		}
		if blank {
			s.led.Blank()
		} else {
			s.led.Unblank()
		}
		s.sendResponse(conn, id, map[string]any{"led": s.ledStatus()})

	// --- Thermal ---

	case "get_thermal":
		s.sendResponse(conn, id, map[string]any{"thermal": s.thermalState()})

	case "set_pid":
		kp, okP := intFromMap(data, "kp")
		ki, okI := intFromMap(data, "ki")
		kd, okD := intFromMap(data, "kd")
		if !okP || !okI || !okD {
			s.sendError(conn, id, fmt.Sprintf("kp, ki and kd are required for set_pid, as integers up to %d", math.MaxInt32))
			return
		}
		if err := s.thermal.SetPID(int32(kp), int32(ki), int32(kd)); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set PID gains: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"thermal": s.thermalState()})

	case "set_keep_temp", "set_overheated_temp":
		temp, ok := intFromMap(data, "temp")
		if !ok || temp < 0 || temp > math.MaxUint8 {
			s.sendError(conn, id, fmt.Sprintf("missing or invalid temp for %s", action))
			return
		}
		var err error
		if action == "set_keep_temp" {
			err = s.thermal.SetKeepTemp(uint8(temp))
		} else {
			err = s.thermal.SetOverheatedTemp(uint8(temp))
		}
		if err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set temperature: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"thermal": s.thermalState()})

	case "set_fan_mode":
		mode, err := thermal.ParseFanMode(stringFromMap(data, "mode"))
		if err != nil {
			s.sendError(conn, id, err.Error())
			return
		}
		if err := s.thermal.SetFanMode(mode); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set fan mode: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"thermal": s.thermalState()})

	case "set_fan_manual_power":
		p, ok := intFromMap(data, "power")
		if !ok || p < 0 || p > thermal.OutputMax {
			s.sendError(conn, id, fmt.Sprintf("power must be an integer in [0,%d]", thermal.OutputMax))
			return
		}
		if err := s.thermal.SetFanManualPower(uint8(p)); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set fan power: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"thermal": s.thermalState()})

	// --- Power ---

	case "get_power":
		s.sendResponse(conn, id, map[string]any{"power": handlers.PowerFromRail(s.rail.State())})

	case "set_power":
		on, ok := data["on"].(bool)
		if !ok {
			s.sendError(conn, id, "missing on for set_power")
			return
		}
		if on {
			s.rail.PowerOn()
		} else {
			s.rail.PowerOff()
		}
		s.sendResponse(conn, id, map[string]any{"power": handlers.PowerFromRail(s.rail.State())})

	// --- Logging ---

	case "get_level":
		s.sendResponse(conn, id, map[string]any{"level": utils.CurrentLevel()})

	case "set_level":
		level := stringFromMap(data, "level")
		if level == "" {
			s.sendError(conn, id, "missing level for set_level")
			return
		}
		if !utils.IsValidLogLevel(level) {
			s.sendError(conn, id, fmt.Sprintf("invalid log level %q; must be debug, info, warn, or error", level))
			return
		}
		validated := utils.ValidateLogLevel(level)
		utils.SetLevel(validated)
		s.logger.Info("Log level changed via socket", "level", validated)
		s.sendResponse(conn, id, map[string]any{"level": validated})

	default:
		s.logger.Warn("received unknown action", "action", action)
		s.sendError(conn, id, "unknown action: "+action)
	}
}

func (s *Server) ledStatus() handlers.LEDStatusResponse {
	return handlers.LEDStatusFromController(s.led.Status(), s.led.NightlightRemaining())
}

func (s *Server) ledSettings() handlers.LEDSettingsResponse {
	return handlers.LEDSettingsFromController(s.led.Settings(), s.led.ChannelCount(), s.led.DutyMax())
}

func (s *Server) thermalState() handlers.ThermalResponse {
	return handlers.ThermalFromController(s.thermal.Settings(), s.thermal.Status())
}

func (s *Server) schedule() map[string]any {
	return map[string]any{
		"enabled":   s.led.Settings().SchedulerEnabled,
		"keyframes": handlers.KeyframesFromController(s.led.Schedule()),
	}
}

func (s *Server) sendResponse(conn net.Conn, id string, data map[string]any) {
	response := map[string]any{"status": "ok"}
	if id != "" {
		response["id"] = id
	}
	maps.Copy(response, data)
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send response", "error", err)
	}
}

func (s *Server) sendError(conn net.Conn, id string, message string) {
	s.logger.Warn("Sending error response to client", "id", id, "message", message)
	response := map[string]any{"error": message}
	if id != "" {
		response["id"] = id
	}
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send error response", "error", err)
	}
}

// stringFromMap extracts a string from a map[string]any, returning "" if missing or wrong type.
func stringFromMap(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// intFromMap extracts an integral JSON number from a map[string]any.
func intFromMap(m map[string]any, key string) (int, bool) {
	f, ok := m[key].(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// colorFromMap extracts a color given as a JSON array of percentages.
func colorFromMap(m map[string]any, key string) (led.Color, error) {
	raw, ok := m[key].([]any)
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	values := make([]int, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%s[%d] is not an integer", key, i)
		}
		values[i] = int(f)
	}
	return led.ColorFromInts(values)
}

// remarshal decodes a generic JSON value into dst.
func remarshal(v any, dst any) error {
	if v == nil {
		return errors.New("missing value")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
