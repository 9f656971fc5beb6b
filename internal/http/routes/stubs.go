package routes

import (
	"context"

	"github.com/jmylchreest/reeflightd/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses; they are only used for OpenAPI generation
// where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: handlers.HealthCheck,
		VersionCheck: func(_ context.Context, _ *handlers.VersionInput) (*handlers.VersionOutput, error) {
			return nil, nil
		},
		LED:     &stubLEDHandlers{},
		Thermal: &stubThermalHandlers{},
		Power:   &stubPowerHandlers{},
		Logging: &stubLoggingHandlers{},
	}
}

// --- LED stubs ---

type stubLEDHandlers struct{}

func (s *stubLEDHandlers) GetStatus(_ context.Context, _ *handlers.GetLEDStatusInput) (*handlers.GetLEDStatusOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) GetSettings(_ context.Context, _ *handlers.GetLEDSettingsInput) (*handlers.GetLEDSettingsOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetMode(_ context.Context, _ *handlers.SetModeInput) (*handlers.GetLEDStatusOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetColor(_ context.Context, _ *handlers.SetColorInput) (*handlers.GetLEDStatusOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) GetChannel(_ context.Context, _ *handlers.GetChannelInput) (*handlers.GetChannelOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetChannel(_ context.Context, _ *handlers.SetChannelInput) (*handlers.GetChannelOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) GetSchedule(_ context.Context, _ *handlers.GetScheduleInput) (*handlers.ScheduleOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetSchedule(_ context.Context, _ *handlers.SetScheduleInput) (*handlers.ScheduleOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetScheduler(_ context.Context, _ *handlers.SetSchedulerInput) (*handlers.ScheduleOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) GetNightlight(_ context.Context, _ *handlers.GetNightlightInput) (*handlers.NightlightOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetNightlight(_ context.Context, _ *handlers.SetNightlightInput) (*handlers.NightlightOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetNightlightColor(_ context.Context, _ *handlers.SetNightlightColorInput) (*handlers.NightlightOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetCorrection(_ context.Context, _ *handlers.SetCorrectionInput) (*handlers.GetLEDSettingsOutput, error) {
	return nil, nil
}

func (s *stubLEDHandlers) SetBlank(_ context.Context, _ *handlers.SetBlankInput) (*handlers.GetLEDStatusOutput, error) {
	return nil, nil
}

// --- Thermal stubs ---

type stubThermalHandlers struct{}

func (s *stubThermalHandlers) GetThermal(_ context.Context, _ *handlers.GetThermalInput) (*handlers.ThermalOutput, error) {
	return nil, nil
}

func (s *stubThermalHandlers) SetPID(_ context.Context, _ *handlers.SetPIDInput) (*handlers.ThermalOutput, error) {
	return nil, nil
}

func (s *stubThermalHandlers) SetTemps(_ context.Context, _ *handlers.SetTempsInput) (*handlers.ThermalOutput, error) {
	return nil, nil
}

func (s *stubThermalHandlers) SetFan(_ context.Context, _ *handlers.SetFanInput) (*handlers.ThermalOutput, error) {
	return nil, nil
}

// --- Power stubs ---

type stubPowerHandlers struct{}

func (s *stubPowerHandlers) GetPower(_ context.Context, _ *handlers.GetPowerInput) (*handlers.PowerOutput, error) {
	return nil, nil
}

func (s *stubPowerHandlers) SetPower(_ context.Context, _ *handlers.SetPowerInput) (*handlers.PowerOutput, error) {
	return nil, nil
}

// --- Logging stubs ---

type stubLoggingHandlers struct{}

func (s *stubLoggingHandlers) GetLevel(_ context.Context, _ *handlers.GetLevelInput) (*handlers.LevelOutput, error) {
	return nil, nil
}

func (s *stubLoggingHandlers) SetLevel(_ context.Context, _ *handlers.SetLevelInput) (*handlers.LevelOutput, error) {
	return nil, nil
}
