package handlers

import (
	"context"

	"github.com/jmylchreest/reeflightd/internal/power"
)

// GetPowerInput is the input for reading the power rail.
type GetPowerInput struct{}

// PowerOutput carries the power rail state.
type PowerOutput struct {
	Body PowerResponse
}

// SetPowerInput is the input for switching the power rail.
type SetPowerInput struct {
	Body struct {
		On bool `json:"on" doc:"Desired power state"`
	}
}

// PowerHandler implements power rail HTTP handlers.
type PowerHandler struct {
	Rail *power.Rail
}

// GetPower returns the power rail state.
func (h *PowerHandler) GetPower(_ context.Context, _ *GetPowerInput) (*PowerOutput, error) {
	return &PowerOutput{Body: PowerFromRail(h.Rail.State())}, nil
}

// SetPower turns the power rail on or off.
func (h *PowerHandler) SetPower(_ context.Context, input *SetPowerInput) (*PowerOutput, error) {
	if input.Body.On {
		h.Rail.PowerOn()
	} else {
		h.Rail.PowerOff()
	}
	return &PowerOutput{Body: PowerFromRail(h.Rail.State())}, nil
}

// Ensure PowerHandler implements the interface at compile time.
var _ PowerHandlers = (*PowerHandler)(nil)

// PowerHandlers defines the interface for power rail operations.
type PowerHandlers interface {
	GetPower(ctx context.Context, input *GetPowerInput) (*PowerOutput, error)
	SetPower(ctx context.Context, input *SetPowerInput) (*PowerOutput, error)
}
