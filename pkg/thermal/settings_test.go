package thermal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"keep below minimum", func(s *Settings) { s.KeepTemp = 34 }, true},
		{"keep equals overheated", func(s *Settings) { s.KeepTemp = 65 }, true},
		{"keep above overheated", func(s *Settings) { s.OverheatedTemp = 40 }, true},
		{"negative gain", func(s *Settings) { s.Ki = -1 }, true},
		{"manual power above max", func(s *Settings) { s.FanManualPower = 101 }, true},
		{"unknown fan mode", func(s *Settings) { s.FanMode = 9 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if tt.wantErr {
				assert.Error(t, s.Validate())
			} else {
				assert.NoError(t, s.Validate())
			}
		})
	}
}

func TestParseFanMode(t *testing.T) {
	m, err := ParseFanMode("PID")
	require.NoError(t, err)
	assert.Equal(t, FanModePID, m)

	_, err = ParseFanMode("turbo")
	assert.Error(t, err)

	text, err := FanModeManual.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "manual", string(text))
}

func TestSettingsEncoding(t *testing.T) {
	s := DefaultSettings()

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fan_mode":"pid"`)
	assert.Contains(t, string(raw), `"keep_temp":45`)

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	var back Settings
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, s, back)
}
