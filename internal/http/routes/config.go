// Package routes provides shared route registration for the reeflightd HTTP API.
// Both the main server and the OpenAPI generator use the same route definitions,
// so the published OpenAPI document always matches the handlers.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/reeflightd/internal/http/mw"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("reeflightd API", version)
	cfg.Info.Description = "REST API for controlling an aquarium LED lamp and its thermal loop via the reeflightd daemon."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	// Add security scheme for API key auth (both Bearer and X-API-Key header)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "API key authentication. Include your API key as `Authorization: Bearer <key>` or `X-API-Key: <key>`.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "LED", Description: "Lighting modes, colors, schedule and correction"},
		{Name: "Thermal", Description: "Fan control loop and overheat interlock"},
		{Name: "Power", Description: "LED power rail"},
		{Name: "Logging", Description: "Runtime log level management"},
	}

	return cfg
}
