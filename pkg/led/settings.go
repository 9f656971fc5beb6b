package led

import (
	"log/slog"
	"time"
)

// Namespace is the storage namespace of the LED user settings.
const Namespace = "led"

// DefaultNightlightDuration is the nightlight length when none is stored.
const DefaultNightlightDuration = 3600

// DefaultNightlightPower is the level held on every channel in NIGHTLIGHT.
const DefaultNightlightPower = 10

// UserSettings are the long-lived, persisted LED settings.
type UserSettings struct {
	SchedulerEnabled   bool       `json:"scheduler_enabled" yaml:"scheduler_enabled"`
	NightlightDuration uint16     `json:"nightlight_duration" yaml:"nightlight_duration"` // seconds
	Schedule           []Keyframe `json:"schedule" yaml:"schedule"`
	ManualColor        Color      `json:"manual_color" yaml:"manual_color"`
	CorrectionEnabled  bool       `json:"correction_enabled" yaml:"correction_enabled"`
	Correction         Curve      `json:"correction" yaml:"correction"`
	NightlightColor    Color      `json:"nightlight_color" yaml:"nightlight_color"`
	ManualOverride     bool       `json:"manual_override" yaml:"manual_override"`
}

// DefaultSettings returns the factory settings for a controller with the
// given channel count.
func DefaultSettings(channels int) UserSettings {
	return UserSettings{
		SchedulerEnabled:   false,
		NightlightDuration: DefaultNightlightDuration,
		Schedule:           []Keyframe{},
		ManualColor:        Off(channels),
		CorrectionEnabled:  true,
		Correction:         DefaultCurve,
		NightlightColor:    Uniform(channels, DefaultNightlightPower),
		ManualOverride:     false,
	}
}

// Clone returns a deep copy of s.
func (s UserSettings) Clone() UserSettings {
	out := s
	out.ManualColor = s.ManualColor.Clone()
	out.NightlightColor = s.NightlightColor.Clone()
	out.Schedule = make([]Keyframe, len(s.Schedule))
	for i, kf := range s.Schedule {
		out.Schedule[i] = Keyframe{Instant: kf.Instant, Color: kf.Color.Clone()}
	}
	return out
}

// sanitize replaces every invalid field with its default, so settings
// loaded from storage written for another channel count still boot.
func (s UserSettings) sanitize(channels int, logger *slog.Logger) (UserSettings, *Schedule) {
	def := DefaultSettings(channels)
	out := s.Clone()

	if out.NightlightDuration == 0 {
		out.NightlightDuration = def.NightlightDuration
	}
	if err := out.ManualColor.Validate(channels); err != nil {
		logger.Warn("Stored manual color invalid, using default", "error", err)
		out.ManualColor = def.ManualColor
	}
	if err := out.NightlightColor.Validate(channels); err != nil {
		logger.Warn("Stored nightlight color invalid, using default", "error", err)
		out.NightlightColor = def.NightlightColor
	}
	if _, err := ParseCurve(string(out.Correction)); err != nil {
		logger.Warn("Stored correction curve invalid, using default", "error", err)
		out.Correction = def.Correction
	}

	sched, err := NewSchedule(out.Schedule, channels)
	if err != nil {
		logger.Warn("Stored schedule invalid, using empty schedule", "error", err)
		sched, _ = NewSchedule(nil, channels)
	}
	out.Schedule = sched.Items()
	return out, sched
}

// Status is a snapshot of the LED runtime state.
type Status struct {
	Mode              Mode      `json:"mode"`
	Color             Color     `json:"color"`
	Duties            Duties    `json:"duties"`
	Blank             bool      `json:"blank"`
	NightlightOffTime time.Time `json:"nightlight_off_time,omitzero"`
	PreviewClock      time.Time `json:"preview_clock,omitzero"`
	ColorToResume     Color     `json:"color_to_resume,omitempty"`
	ResumeMode        Mode      `json:"resume_mode"`
	Fade              Fader     `json:"fade"`
	Fading            bool      `json:"fading"`
}
