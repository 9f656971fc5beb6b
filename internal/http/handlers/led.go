package handlers

import (
	"context"

	"github.com/jmylchreest/reeflightd/pkg/led"
)

// --- Status / Settings ---

// GetLEDStatusInput is the input for reading the LED runtime state.
type GetLEDStatusInput struct{}

// GetLEDStatusOutput is the output for reading the LED runtime state.
type GetLEDStatusOutput struct {
	Body LEDStatusResponse
}

// GetLEDSettingsInput is the input for reading the LED user settings.
type GetLEDSettingsInput struct{}

// GetLEDSettingsOutput is the output for reading the LED user settings.
type GetLEDSettingsOutput struct {
	Body LEDSettingsResponse
}

// --- Mode ---

// SetModeInput is the input for switching modes.
type SetModeInput struct {
	Body struct {
		Mode string `json:"mode" doc:"Target mode" enum:"NORMAL,DIMMING,NIGHTLIGHT,PREVIEW,normal,dimming,nightlight,preview"`
	}
}

// --- Color ---

// SetColorInput is the input for setting the color of the current mode.
type SetColorInput struct {
	Body struct {
		Color []int `json:"color" doc:"Power per channel (0-100)" minItems:"1" maxItems:"10"`
	}
}

// SetNightlightColorInput is the input for setting the nightlight color.
type SetNightlightColorInput struct {
	Body struct {
		Color []int `json:"color" doc:"Power per channel (0-100)" minItems:"1" maxItems:"10"`
	}
}

// ChannelPowerBody is the power of a single channel.
type ChannelPowerBody struct {
	Channel int `json:"channel" doc:"Channel index"`
	Power   int `json:"power" doc:"Power (0-100)" minimum:"0" maximum:"100"`
}

// GetChannelInput is the input for reading one channel.
type GetChannelInput struct {
	Channel int `path:"channel" doc:"Channel index" minimum:"0"`
}

// GetChannelOutput is the output for reading one channel.
type GetChannelOutput struct {
	Body ChannelPowerBody
}

// SetChannelInput is the input for setting one channel.
type SetChannelInput struct {
	Channel int `path:"channel" doc:"Channel index" minimum:"0"`
	Body    struct {
		Power int `json:"power" doc:"Power (0-100)" minimum:"0" maximum:"100"`
	}
}

// --- Schedule ---

// GetScheduleInput is the input for reading the schedule.
type GetScheduleInput struct{}

// ScheduleOutput carries the schedule.
type ScheduleOutput struct {
	Body struct {
		Enabled   bool           `json:"enabled" doc:"Whether NORMAL mode follows the schedule"`
		Keyframes []KeyframeBody `json:"keyframes" doc:"Keyframes in ascending order"`
	}
}

// SetScheduleInput is the input for replacing the schedule.
type SetScheduleInput struct {
	Body struct {
		Keyframes []KeyframeBody `json:"keyframes" doc:"Keyframes, at most 48 with distinct instants" maxItems:"48"`
	}
}

// SetSchedulerInput is the input for enabling or disabling the scheduler.
type SetSchedulerInput struct {
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether NORMAL mode follows the schedule"`
	}
}

// --- Nightlight ---

// GetNightlightInput is the input for reading the nightlight state.
type GetNightlightInput struct{}

// NightlightOutput carries the nightlight state.
type NightlightOutput struct {
	Body struct {
		Duration  int   `json:"duration" doc:"Nightlight length in seconds"`
		Remaining int   `json:"remaining" doc:"Seconds left, 0 when not in NIGHTLIGHT"`
		Color     []int `json:"color" doc:"Color held in NIGHTLIGHT"`
	}
}

// SetNightlightInput is the input for changing the nightlight duration.
type SetNightlightInput struct {
	Body struct {
		Duration int `json:"duration" doc:"Nightlight length in seconds" minimum:"1" maximum:"65535"`
	}
}

// --- Correction ---

// SetCorrectionInput is the input for changing perceptual correction.
type SetCorrectionInput struct {
	Body struct {
		Enabled bool   `json:"enabled" doc:"Whether correction is applied"`
		Curve   string `json:"curve,omitempty" doc:"Correction curve; empty keeps the current one" enum:"cie1931,gamma,log,exp,linear,"`
	}
}

// --- Blank ---

// SetBlankInput is the input for blanking the output.
type SetBlankInput struct {
	Body struct {
		Blank bool `json:"blank" doc:"True blanks every channel, false fades back in"`
	}
}

// LEDHandler implements LED HTTP handlers.
type LEDHandler struct {
	LED *led.Controller
}

func (h *LEDHandler) status() LEDStatusResponse {
	return LEDStatusFromController(h.LED.Status(), h.LED.NightlightRemaining())
}

func (h *LEDHandler) settings() LEDSettingsResponse {
	return LEDSettingsFromController(h.LED.Settings(), h.LED.ChannelCount(), h.LED.DutyMax())
}

// GetStatus returns the LED runtime state.
func (h *LEDHandler) GetStatus(_ context.Context, _ *GetLEDStatusInput) (*GetLEDStatusOutput, error) {
	return &GetLEDStatusOutput{Body: h.status()}, nil
}

// GetSettings returns the LED user settings.
func (h *LEDHandler) GetSettings(_ context.Context, _ *GetLEDSettingsInput) (*GetLEDSettingsOutput, error) {
	return &GetLEDSettingsOutput{Body: h.settings()}, nil
}

// SetMode switches the mode and returns the new state.
func (h *LEDHandler) SetMode(_ context.Context, input *SetModeInput) (*GetLEDStatusOutput, error) {
	m, err := led.ParseMode(input.Body.Mode)
	if err != nil {
		return nil, apiError(err)
	}
	if err := h.LED.SwitchMode(m); err != nil {
		return nil, apiError(err)
	}
	return &GetLEDStatusOutput{Body: h.status()}, nil
}

// SetColor sets the color of the current mode.
func (h *LEDHandler) SetColor(_ context.Context, input *SetColorInput) (*GetLEDStatusOutput, error) {
	c, err := led.ColorFromInts(input.Body.Color)
	if err != nil {
		return nil, apiError(err)
	}
	if err := h.LED.SetColor(c); err != nil {
		return nil, apiError(err)
	}
	return &GetLEDStatusOutput{Body: h.status()}, nil
}

// GetChannel returns the displayed power of one channel.
func (h *LEDHandler) GetChannel(_ context.Context, input *GetChannelInput) (*GetChannelOutput, error) {
	p, err := h.LED.ChannelPower(input.Channel)
	if err != nil {
		return nil, apiError(err)
	}
	return &GetChannelOutput{Body: ChannelPowerBody{Channel: input.Channel, Power: int(p)}}, nil
}

// SetChannel sets the power of one channel.
func (h *LEDHandler) SetChannel(_ context.Context, input *SetChannelInput) (*GetChannelOutput, error) {
	if err := h.LED.SetChannelPower(input.Channel, uint8(input.Body.Power)); err != nil {
		return nil, apiError(err)
	}
	return &GetChannelOutput{Body: ChannelPowerBody{Channel: input.Channel, Power: input.Body.Power}}, nil
}

func (h *LEDHandler) schedule() *ScheduleOutput {
	out := &ScheduleOutput{}
	out.Body.Enabled = h.LED.Settings().SchedulerEnabled
	out.Body.Keyframes = KeyframesFromController(h.LED.Schedule())
	return out
}

// GetSchedule returns the schedule.
func (h *LEDHandler) GetSchedule(_ context.Context, _ *GetScheduleInput) (*ScheduleOutput, error) {
	return h.schedule(), nil
}

// SetSchedule replaces the schedule atomically.
func (h *LEDHandler) SetSchedule(_ context.Context, input *SetScheduleInput) (*ScheduleOutput, error) {
	items, err := KeyframesToController(input.Body.Keyframes)
	if err != nil {
		return nil, apiError(err)
	}
	if err := h.LED.SetSchedule(items); err != nil {
		return nil, apiError(err)
	}
	return h.schedule(), nil
}

// SetScheduler enables or disables the scheduler.
func (h *LEDHandler) SetScheduler(_ context.Context, input *SetSchedulerInput) (*ScheduleOutput, error) {
	h.LED.SetSchedulerEnabled(input.Body.Enabled)
	return h.schedule(), nil
}

func (h *LEDHandler) nightlight() *NightlightOutput {
	s := h.LED.Settings()
	out := &NightlightOutput{}
	out.Body.Duration = int(s.NightlightDuration)
	out.Body.Remaining = int(h.LED.NightlightRemaining().Seconds())
	out.Body.Color = s.NightlightColor.Ints()
	return out
}

// GetNightlight returns the nightlight duration and time remaining.
func (h *LEDHandler) GetNightlight(_ context.Context, _ *GetNightlightInput) (*NightlightOutput, error) {
	return h.nightlight(), nil
}

// SetNightlight changes the nightlight duration.
func (h *LEDHandler) SetNightlight(_ context.Context, input *SetNightlightInput) (*NightlightOutput, error) {
	if input.Body.Duration < 1 || input.Body.Duration > 65535 {
		return nil, apiError(led.ErrInvalidArgument)
	}
	if err := h.LED.SetNightlightDuration(uint16(input.Body.Duration)); err != nil {
		return nil, apiError(err)
	}
	return h.nightlight(), nil
}

// SetNightlightColor changes the color held during NIGHTLIGHT.
func (h *LEDHandler) SetNightlightColor(_ context.Context, input *SetNightlightColorInput) (*NightlightOutput, error) {
	c, err := led.ColorFromInts(input.Body.Color)
	if err != nil {
		return nil, apiError(err)
	}
	if err := h.LED.SetNightlightColor(c); err != nil {
		return nil, apiError(err)
	}
	return h.nightlight(), nil
}

// SetCorrection changes perceptual correction.
func (h *LEDHandler) SetCorrection(_ context.Context, input *SetCorrectionInput) (*GetLEDSettingsOutput, error) {
	if err := h.LED.SetCorrection(input.Body.Enabled, led.Curve(input.Body.Curve)); err != nil {
		return nil, apiError(err)
	}
	return &GetLEDSettingsOutput{Body: h.settings()}, nil
}

// SetBlank blanks or unblanks the output.
func (h *LEDHandler) SetBlank(_ context.Context, input *SetBlankInput) (*GetLEDStatusOutput, error) {
	if input.Body.Blank {
		h.LED.Blank()
	} else {
		h.LED.Unblank()
	}
	return &GetLEDStatusOutput{Body: h.status()}, nil
}

// Ensure LEDHandler implements the interface at compile time.
var _ LEDHandlers = (*LEDHandler)(nil)

// LEDHandlers defines the interface for LED operations.
type LEDHandlers interface {
	GetStatus(ctx context.Context, input *GetLEDStatusInput) (*GetLEDStatusOutput, error)
	GetSettings(ctx context.Context, input *GetLEDSettingsInput) (*GetLEDSettingsOutput, error)
	SetMode(ctx context.Context, input *SetModeInput) (*GetLEDStatusOutput, error)
	SetColor(ctx context.Context, input *SetColorInput) (*GetLEDStatusOutput, error)
	GetChannel(ctx context.Context, input *GetChannelInput) (*GetChannelOutput, error)
	SetChannel(ctx context.Context, input *SetChannelInput) (*GetChannelOutput, error)
	GetSchedule(ctx context.Context, input *GetScheduleInput) (*ScheduleOutput, error)
	SetSchedule(ctx context.Context, input *SetScheduleInput) (*ScheduleOutput, error)
	SetScheduler(ctx context.Context, input *SetSchedulerInput) (*ScheduleOutput, error)
	GetNightlight(ctx context.Context, input *GetNightlightInput) (*NightlightOutput, error)
	SetNightlight(ctx context.Context, input *SetNightlightInput) (*NightlightOutput, error)
	SetNightlightColor(ctx context.Context, input *SetNightlightColorInput) (*NightlightOutput, error)
	SetCorrection(ctx context.Context, input *SetCorrectionInput) (*GetLEDSettingsOutput, error)
	SetBlank(ctx context.Context, input *SetBlankInput) (*GetLEDStatusOutput, error)
}
