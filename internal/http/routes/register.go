package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/reeflightd/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
// Pass real handler implementations for the main server, or stub implementations
// for OpenAPI generation.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithDescription("Returns service health status. This endpoint does not require authentication."),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.HealthCheck)

	// --- Version ---
	mw.PublicGet(api, "/api/v1/version", h.VersionCheck,
		mw.WithTags("Version"),
		mw.WithSummary("Daemon version"),
		mw.WithDescription("Returns the running daemon's version, commit, and build date. This endpoint does not require authentication."),
		mw.WithOperationID("getVersion"))

	// --- LED ---
	mw.ProtectedGet(api, "/api/v1/led/status", h.LED.GetStatus,
		mw.WithTags("LED"),
		mw.WithSummary("Get LED status"),
		mw.WithDescription("Returns the current mode, displayed color, duties and temporary mode state."),
		mw.WithOperationID("getLedStatus"))

	mw.ProtectedGet(api, "/api/v1/led/settings", h.LED.GetSettings,
		mw.WithTags("LED"),
		mw.WithSummary("Get LED settings"),
		mw.WithOperationID("getLedSettings"))

	mw.ProtectedPut(api, "/api/v1/led/mode", h.LED.SetMode,
		mw.WithTags("LED"),
		mw.WithSummary("Switch mode"),
		mw.WithDescription("Switches to NORMAL, DIMMING, NIGHTLIGHT or PREVIEW. NIGHTLIGHT and PREVIEW return to the previous mode when they end."),
		mw.WithOperationID("setLedMode"))

	mw.ProtectedPut(api, "/api/v1/led/color", h.LED.SetColor,
		mw.WithTags("LED"),
		mw.WithSummary("Set color"),
		mw.WithDescription("Sets the preview color in PREVIEW and the manual color in every other mode. In NIGHTLIGHT the manual color is stored and shown when the nightlight ends. Clears blanking."),
		mw.WithOperationID("setLedColor"))

	mw.ProtectedGet(api, "/api/v1/led/channels/{channel}", h.LED.GetChannel,
		mw.WithTags("LED"),
		mw.WithSummary("Get channel power"),
		mw.WithOperationID("getLedChannel"))

	mw.ProtectedPut(api, "/api/v1/led/channels/{channel}", h.LED.SetChannel,
		mw.WithTags("LED"),
		mw.WithSummary("Set channel power"),
		mw.WithDescription("Changes a single channel of the color editable in the current mode."),
		mw.WithOperationID("setLedChannel"))

	mw.ProtectedGet(api, "/api/v1/led/schedule", h.LED.GetSchedule,
		mw.WithTags("LED"),
		mw.WithSummary("Get schedule"),
		mw.WithOperationID("getLedSchedule"))

	mw.ProtectedPut(api, "/api/v1/led/schedule", h.LED.SetSchedule,
		mw.WithTags("LED"),
		mw.WithSummary("Replace schedule"),
		mw.WithDescription("Atomically replaces the daily schedule. An invalid schedule is rejected and the previous one stays active."),
		mw.WithOperationID("setLedSchedule"))

	mw.ProtectedPut(api, "/api/v1/led/scheduler", h.LED.SetScheduler,
		mw.WithTags("LED"),
		mw.WithSummary("Enable or disable the scheduler"),
		mw.WithOperationID("setLedScheduler"))

	mw.ProtectedGet(api, "/api/v1/led/nightlight", h.LED.GetNightlight,
		mw.WithTags("LED"),
		mw.WithSummary("Get nightlight state"),
		mw.WithOperationID("getLedNightlight"))

	mw.ProtectedPut(api, "/api/v1/led/nightlight", h.LED.SetNightlight,
		mw.WithTags("LED"),
		mw.WithSummary("Set nightlight duration"),
		mw.WithDescription("Changes the nightlight length in seconds. A running nightlight keeps its current off time."),
		mw.WithOperationID("setLedNightlight"))

	mw.ProtectedPut(api, "/api/v1/led/nightlight/color", h.LED.SetNightlightColor,
		mw.WithTags("LED"),
		mw.WithSummary("Set nightlight color"),
		mw.WithOperationID("setLedNightlightColor"))

	mw.ProtectedPut(api, "/api/v1/led/correction", h.LED.SetCorrection,
		mw.WithTags("LED"),
		mw.WithSummary("Set perceptual correction"),
		mw.WithOperationID("setLedCorrection"))

	mw.ProtectedPost(api, "/api/v1/led/blank", h.LED.SetBlank,
		mw.WithTags("LED"),
		mw.WithSummary("Blank or unblank the output"),
		mw.WithOperationID("setLedBlank"))

	// --- Thermal ---
	mw.ProtectedGet(api, "/api/v1/thermal", h.Thermal.GetThermal,
		mw.WithTags("Thermal"),
		mw.WithSummary("Get thermal state"),
		mw.WithDescription("Returns the heat sink temperature, fan output, interlock counter and settings."),
		mw.WithOperationID("getThermal"))

	mw.ProtectedPut(api, "/api/v1/thermal/pid", h.Thermal.SetPID,
		mw.WithTags("Thermal"),
		mw.WithSummary("Set PID gains"),
		mw.WithOperationID("setThermalPid"))

	mw.ProtectedPut(api, "/api/v1/thermal/temps", h.Thermal.SetTemps,
		mw.WithTags("Thermal"),
		mw.WithSummary("Set temperature thresholds"),
		mw.WithDescription("Changes the keep and overheated temperatures. The keep temperature must stay below the overheated temperature."),
		mw.WithOperationID("setThermalTemps"))

	mw.ProtectedPut(api, "/api/v1/thermal/fan", h.Thermal.SetFan,
		mw.WithTags("Thermal"),
		mw.WithSummary("Set fan mode"),
		mw.WithOperationID("setThermalFan"))

	// --- Power ---
	mw.ProtectedGet(api, "/api/v1/power", h.Power.GetPower,
		mw.WithTags("Power"),
		mw.WithSummary("Get power rail state"),
		mw.WithOperationID("getPower"))

	mw.ProtectedPut(api, "/api/v1/power", h.Power.SetPower,
		mw.WithTags("Power"),
		mw.WithSummary("Switch the power rail"),
		mw.WithOperationID("setPower"))

	// --- Logging ---
	mw.ProtectedGet(api, "/api/v1/logging/level", h.Logging.GetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Get global log level"),
		mw.WithOperationID("getLogLevel"))

	mw.ProtectedPut(api, "/api/v1/logging/level", h.Logging.SetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Set global log level"),
		mw.WithDescription("Changes the global log level at runtime. Valid values: debug, info, warn, error."),
		mw.WithOperationID("setLogLevel"))
}
