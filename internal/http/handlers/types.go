// Package handlers provides typed Huma request/response structs and handler
// implementations for the reeflightd HTTP API.
package handlers

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/internal/power"
	"github.com/jmylchreest/reeflightd/pkg/led"
	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// --- LED types ---

// LEDStatusResponse is the API representation of the LED runtime state.
type LEDStatusResponse struct {
	Mode                string     `json:"mode" doc:"Current mode" enum:"NORMAL,DIMMING,NIGHTLIGHT,PREVIEW"`
	Color               []int      `json:"color" doc:"Current output power per channel (0-100)"`
	Duties              []int      `json:"duties" doc:"Current PWM duty per channel after correction"`
	Blank               bool       `json:"blank" doc:"Whether the output is blanked"`
	Fading              bool       `json:"fading" doc:"Whether a fade is in progress"`
	ResumeMode          string     `json:"resume_mode" doc:"Mode restored when a temporary mode ends"`
	ColorToResume       []int      `json:"color_to_resume,omitempty" doc:"Color restored when a temporary mode ends"`
	NightlightOffTime   *time.Time `json:"nightlight_off_time,omitempty" doc:"When the nightlight ends"`
	NightlightRemaining int        `json:"nightlight_remaining" doc:"Seconds until the nightlight ends"`
	PreviewClock        *time.Time `json:"preview_clock,omitempty" doc:"Simulated time of day in preview mode"`
}

// LEDStatusFromController converts a status snapshot to its API form.
func LEDStatusFromController(st led.Status, remaining time.Duration) LEDStatusResponse {
	resp := LEDStatusResponse{
		Mode:                st.Mode.String(),
		Color:               st.Color.Ints(),
		Duties:              st.Duties.Ints(),
		Blank:               st.Blank,
		Fading:              st.Fading,
		ResumeMode:          st.ResumeMode.String(),
		NightlightRemaining: int(remaining / time.Second),
	}
	if st.ColorToResume != nil {
		resp.ColorToResume = st.ColorToResume.Ints()
	}
	if !st.NightlightOffTime.IsZero() {
		t := st.NightlightOffTime
		resp.NightlightOffTime = &t
	}
	if !st.PreviewClock.IsZero() {
		t := st.PreviewClock
		resp.PreviewClock = &t
	}
	return resp
}

// LEDSettingsResponse is the API representation of the LED user settings.
type LEDSettingsResponse struct {
	Channels           int    `json:"channels" doc:"Number of LED channels"`
	DutyMax            int    `json:"duty_max" doc:"Full-scale PWM duty"`
	SchedulerEnabled   bool   `json:"scheduler_enabled" doc:"Whether NORMAL mode follows the daily schedule"`
	NightlightDuration int    `json:"nightlight_duration" doc:"Nightlight length in seconds"`
	ManualColor        []int  `json:"manual_color" doc:"Color used when the scheduler is disabled"`
	NightlightColor    []int  `json:"nightlight_color" doc:"Color held in NIGHTLIGHT mode"`
	CorrectionEnabled  bool   `json:"correction_enabled" doc:"Whether perceptual correction is applied"`
	Correction         string `json:"correction" doc:"Correction curve"`
	ManualOverride     bool   `json:"manual_override" doc:"Whether the manual color was set while the scheduler was running"`
}

// LEDSettingsFromController converts user settings to their API form.
func LEDSettingsFromController(s led.UserSettings, channels int, dutyMax uint16) LEDSettingsResponse {
	return LEDSettingsResponse{
		Channels:           channels,
		DutyMax:            int(dutyMax),
		SchedulerEnabled:   s.SchedulerEnabled,
		NightlightDuration: int(s.NightlightDuration),
		ManualColor:        s.ManualColor.Ints(),
		NightlightColor:    s.NightlightColor.Ints(),
		CorrectionEnabled:  s.CorrectionEnabled,
		Correction:         string(s.Correction),
		ManualOverride:     s.ManualOverride,
	}
}

// KeyframeBody is one scheduler keyframe.
type KeyframeBody struct {
	Instant uint32 `json:"instant" doc:"Seconds since local midnight" maximum:"86399"`
	Color   []int  `json:"color" doc:"Power per channel (0-100)"`
}

// KeyframesFromController converts keyframes to their API form.
func KeyframesFromController(items []led.Keyframe) []KeyframeBody {
	out := make([]KeyframeBody, len(items))
	for i, kf := range items {
		out[i] = KeyframeBody{Instant: kf.Instant, Color: kf.Color.Ints()}
	}
	return out
}

// KeyframesToController converts API keyframes, validating each color's
// range. Channel count is checked by the controller.
func KeyframesToController(items []KeyframeBody) ([]led.Keyframe, error) {
	out := make([]led.Keyframe, len(items))
	for i, kf := range items {
		c, err := led.ColorFromInts(kf.Color)
		if err != nil {
			return nil, err
		}
		out[i] = led.Keyframe{Instant: kf.Instant, Color: c}
	}
	return out, nil
}

// --- Thermal types ---

// ThermalResponse is the API representation of the thermal loop.
type ThermalResponse struct {
	Temperature    int    `json:"temperature" doc:"Last heat sink temperature in °C"`
	SensorFault    bool   `json:"sensor_fault" doc:"Whether the sensor is faulted"`
	FanPower       int    `json:"fan_power" doc:"Fan power in percent"`
	FanMode        string `json:"fan_mode" doc:"Fan mode" enum:"disabled,manual,pid"`
	FanManualPower int    `json:"fan_manual_power" doc:"Fan power used in manual mode"`
	OverheatCount  int    `json:"overheat_count" doc:"Consecutive overheated ticks"`
	KeepTemp       int    `json:"keep_temp" doc:"Temperature setpoint in °C"`
	OverheatedTemp int    `json:"overheated_temp" doc:"Emergency shutdown threshold in °C"`
	Kp             int32  `json:"kp" doc:"Proportional gain, scaled by 100"`
	Ki             int32  `json:"ki" doc:"Integral gain, scaled by 100"`
	Kd             int32  `json:"kd" doc:"Derivative gain, scaled by 100"`
}

// ThermalFromController merges thermal settings and status.
func ThermalFromController(s thermal.Settings, st thermal.Status) ThermalResponse {
	return ThermalResponse{
		Temperature:    st.Temperature,
		SensorFault:    st.SensorFault,
		FanPower:       int(st.FanPower),
		FanMode:        s.FanMode.String(),
		FanManualPower: int(s.FanManualPower),
		OverheatCount:  st.OverheatCount,
		KeepTemp:       int(s.KeepTemp),
		OverheatedTemp: int(s.OverheatedTemp),
		Kp:             s.Kp,
		Ki:             s.Ki,
		Kd:             s.Kd,
	}
}

// --- Power types ---

// PowerResponse is the API representation of the power rail.
type PowerResponse struct {
	On             bool       `json:"on" doc:"Whether the power rail is on"`
	ShutdownReason string     `json:"shutdown_reason,omitempty" doc:"Reason of the last emergency shutdown"`
	ShutdownAt     *time.Time `json:"shutdown_at,omitempty" doc:"Time of the last emergency shutdown"`
	Shutdowns      int        `json:"shutdowns" doc:"Emergency shutdowns since start"`
}

// PowerFromRail converts a rail snapshot to its API form.
func PowerFromRail(st power.State) PowerResponse {
	resp := PowerResponse{
		On:             st.On,
		ShutdownReason: st.ShutdownReason,
		Shutdowns:      st.Shutdowns,
	}
	if !st.ShutdownAt.IsZero() {
		t := st.ShutdownAt
		resp.ShutdownAt = &t
	}
	return resp
}

// --- Common response types ---

// StatusResponse is a simple status response.
type StatusResponse struct {
	Status string `json:"status" doc:"Operation status"`
}

// apiError maps controller errors onto HTTP status codes by kind.
func apiError(err error) error {
	return huma.NewError(errors.Status(err), err.Error())
}
