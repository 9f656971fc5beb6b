package handlers

import (
	"context"

	"github.com/jmylchreest/reeflightd/pkg/thermal"
)

// GetThermalInput is the input for reading the thermal loop.
type GetThermalInput struct{}

// ThermalOutput carries the thermal loop state.
type ThermalOutput struct {
	Body ThermalResponse
}

// SetPIDInput is the input for changing the PID gains.
type SetPIDInput struct {
	Body struct {
		Kp int32 `json:"kp" doc:"Proportional gain, scaled by 100" minimum:"0"`
		Ki int32 `json:"ki" doc:"Integral gain, scaled by 100" minimum:"0"`
		Kd int32 `json:"kd" doc:"Derivative gain, scaled by 100" minimum:"0"`
	}
}

// SetTempsInput is the input for changing the temperature thresholds.
// Omitted fields are left unchanged.
type SetTempsInput struct {
	Body struct {
		KeepTemp       *int `json:"keep_temp,omitempty" doc:"Setpoint in °C, at least 35 and below the overheated temperature" minimum:"35" maximum:"254"`
		OverheatedTemp *int `json:"overheated_temp,omitempty" doc:"Emergency threshold in °C" minimum:"36" maximum:"255"`
	}
}

// SetFanInput is the input for changing the fan mode and manual power.
// Omitted fields are left unchanged.
type SetFanInput struct {
	Body struct {
		Mode        string `json:"mode,omitempty" doc:"Fan mode" enum:"disabled,manual,pid,"`
		ManualPower *int   `json:"manual_power,omitempty" doc:"Fan power used in manual mode" minimum:"0" maximum:"100"`
	}
}

// ThermalHandler implements thermal HTTP handlers.
type ThermalHandler struct {
	Thermal *thermal.Controller
}

func (h *ThermalHandler) output() *ThermalOutput {
	return &ThermalOutput{Body: ThermalFromController(h.Thermal.Settings(), h.Thermal.Status())}
}

// GetThermal returns settings and runtime state.
func (h *ThermalHandler) GetThermal(_ context.Context, _ *GetThermalInput) (*ThermalOutput, error) {
	return h.output(), nil
}

// SetPID changes the gains and re-initializes the loop.
func (h *ThermalHandler) SetPID(_ context.Context, input *SetPIDInput) (*ThermalOutput, error) {
	if err := h.Thermal.SetPID(input.Body.Kp, input.Body.Ki, input.Body.Kd); err != nil {
		return nil, apiError(err)
	}
	return h.output(), nil
}

// SetTemps changes the keep and overheated temperatures in one update.
func (h *ThermalHandler) SetTemps(_ context.Context, input *SetTempsInput) (*ThermalOutput, error) {
	if err := h.Thermal.SetTemps(tempPtr(input.Body.KeepTemp), tempPtr(input.Body.OverheatedTemp)); err != nil {
		return nil, apiError(err)
	}
	return h.output(), nil
}

// tempPtr narrows an optional temperature; the schema bounds it to 0..255.
func tempPtr(v *int) *uint8 {
	if v == nil {
		return nil
	}
	t := uint8(*v)
	return &t
}

// SetFan changes the fan mode and manual power.
func (h *ThermalHandler) SetFan(_ context.Context, input *SetFanInput) (*ThermalOutput, error) {
	if input.Body.ManualPower != nil {
		if err := h.Thermal.SetFanManualPower(uint8(*input.Body.ManualPower)); err != nil {
			return nil, apiError(err)
		}
	}
	if input.Body.Mode != "" {
		mode, err := thermal.ParseFanMode(input.Body.Mode)
		if err != nil {
			return nil, apiError(err)
		}
		if err := h.Thermal.SetFanMode(mode); err != nil {
			return nil, apiError(err)
		}
	}
	return h.output(), nil
}

// Ensure ThermalHandler implements the interface at compile time.
var _ ThermalHandlers = (*ThermalHandler)(nil)

// ThermalHandlers defines the interface for thermal operations.
type ThermalHandlers interface {
	GetThermal(ctx context.Context, input *GetThermalInput) (*ThermalOutput, error)
	SetPID(ctx context.Context, input *SetPIDInput) (*ThermalOutput, error)
	SetTemps(ctx context.Context, input *SetTempsInput) (*ThermalOutput, error)
	SetFan(ctx context.Context, input *SetFanInput) (*ThermalOutput, error)
}
