package routes

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/reeflightd/internal/http/mw"
)

func TestRegisterStubHandlers(t *testing.T) {
	_, api := humatest.New(t, NewHumaConfig("test", "http://localhost:9124"))
	Register(api, StubHandlers())

	oapi := api.OpenAPI()
	assert.Equal(t, "reeflightd API", oapi.Info.Title)
	require.Len(t, oapi.Servers, 1)

	for _, path := range []string{
		"/api/v1/health",
		"/api/v1/version",
		"/api/v1/led/status",
		"/api/v1/led/settings",
		"/api/v1/led/mode",
		"/api/v1/led/color",
		"/api/v1/led/channels/{channel}",
		"/api/v1/led/schedule",
		"/api/v1/led/scheduler",
		"/api/v1/led/nightlight",
		"/api/v1/led/nightlight/color",
		"/api/v1/led/correction",
		"/api/v1/led/blank",
		"/api/v1/thermal",
		"/api/v1/thermal/pid",
		"/api/v1/thermal/temps",
		"/api/v1/thermal/fan",
		"/api/v1/power",
		"/api/v1/logging/level",
	} {
		assert.Contains(t, oapi.Paths, path)
	}
}

func TestRegisterSecurity(t *testing.T) {
	_, api := humatest.New(t, NewHumaConfig("test", ""))
	Register(api, StubHandlers())

	oapi := api.OpenAPI()
	assert.Empty(t, oapi.Paths["/api/v1/health"].Get.Security, "health is public")
	require.NotEmpty(t, oapi.Paths["/api/v1/led/status"].Get.Security)
	assert.Contains(t, oapi.Paths["/api/v1/led/status"].Get.Security[0], mw.SecurityScheme)
	assert.NotNil(t, oapi.Paths["/api/v1/led/blank"].Post)
}

func TestStubHealthCheckServes(t *testing.T) {
	_, api := humatest.New(t, NewHumaConfig("test", ""))
	Register(api, StubHandlers())

	resp := api.Get("/healthz")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}
