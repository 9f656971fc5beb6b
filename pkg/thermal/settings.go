package thermal

import (
	"strings"

	"github.com/jmylchreest/reeflightd/internal/errors"
)

// Namespace is the storage namespace of the thermal settings.
const Namespace = "thermal"

// MinKeepTemp is the lowest accepted keep temperature in °C.
const MinKeepTemp = 35

// FanMode selects how the fan is driven.
type FanMode uint8

const (
	FanModeDisabled FanMode = iota
	FanModeManual
	FanModePID
)

var fanModeNames = [...]string{"disabled", "manual", "pid"}

func (m FanMode) String() string {
	if int(m) < len(fanModeNames) {
		return fanModeNames[m]
	}
	return "unknown"
}

// Valid reports whether m is a known fan mode.
func (m FanMode) Valid() bool {
	return int(m) < len(fanModeNames)
}

// ParseFanMode returns the fan mode named s, case-insensitively.
func ParseFanMode(s string) (FanMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fanModeNames {
		if n == name {
			return FanMode(i), nil
		}
	}
	return 0, errors.InvalidInputf("unknown fan mode %q", s)
}

// MarshalText encodes the fan mode by name.
func (m FanMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a fan mode name.
func (m *FanMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFanMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Settings are the persisted thermal settings. PID gains are fixed-point
// values scaled by PIDScale.
type Settings struct {
	Kp             int32   `json:"kp" yaml:"kp"`
	Ki             int32   `json:"ki" yaml:"ki"`
	Kd             int32   `json:"kd" yaml:"kd"`
	KeepTemp       uint8   `json:"keep_temp" yaml:"keep_temp"`
	OverheatedTemp uint8   `json:"overheated_temp" yaml:"overheated_temp"`
	FanMode        FanMode `json:"fan_mode" yaml:"fan_mode"`
	FanManualPower uint8   `json:"fan_manual_power" yaml:"fan_manual_power"`
}

// DefaultSettings returns the factory thermal settings.
func DefaultSettings() Settings {
	return Settings{
		Kp:             200,
		Ki:             20,
		Kd:             100,
		KeepTemp:       45,
		OverheatedTemp: 65,
		FanMode:        FanModePID,
		FanManualPower: 75,
	}
}

// Validate checks the cross-field invariants of s.
func (s Settings) Validate() error {
	if s.Kp < 0 || s.Ki < 0 || s.Kd < 0 {
		return errors.InvalidInputf("PID gains must not be negative")
	}
	if s.KeepTemp < MinKeepTemp {
		return errors.InvalidInputf("keep temperature %d below %d", s.KeepTemp, MinKeepTemp)
	}
	if s.KeepTemp >= s.OverheatedTemp {
		return errors.InvalidInputf("keep temperature %d must be below overheated temperature %d", s.KeepTemp, s.OverheatedTemp)
	}
	if !s.FanMode.Valid() {
		return errors.InvalidInputf("invalid fan mode %d", s.FanMode)
	}
	if s.FanManualPower > OutputMax {
		return errors.InvalidInputf("manual fan power %d out of range [0,%d]", s.FanManualPower, OutputMax)
	}
	return nil
}
