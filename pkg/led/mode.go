package led

import (
	"strings"
	"time"

	"github.com/jmylchreest/reeflightd/internal/errors"
)

// Mode is the operating mode of the LED engine.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeDimming
	ModeNightlight
	ModePreview
)

var modeNames = [...]string{"NORMAL", "DIMMING", "NIGHTLIGHT", "PREVIEW"}

// String returns the upper-case mode name.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "UNKNOWN"
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return int(m) < len(modeNames)
}

// Transient reports whether m is a temporary mode that resumes the
// previous one when it ends.
func (m Mode) Transient() bool {
	return m == ModeNightlight || m == ModePreview
}

// ParseMode returns the mode named s, case-insensitively.
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, errors.InvalidInputf("unknown mode %q", s)
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// resume is what a transient mode returns to when it ends.
type resume struct {
	mode  Mode
	color Color
}

// modeState is the tagged variant of the state machine: one type per
// mode, each carrying only the data that mode needs.
type modeState interface {
	mode() Mode
}

type normalState struct{}

type dimmingState struct{}

type nightlightState struct {
	resume resume
	offAt  time.Time
}

type previewState struct {
	resume resume
	clock  time.Time
	color  Color
}

func (normalState) mode() Mode     { return ModeNormal }
func (dimmingState) mode() Mode    { return ModeDimming }
func (nightlightState) mode() Mode { return ModeNightlight }
func (previewState) mode() Mode    { return ModePreview }

// stableState returns the state for a non-transient mode.
func stableState(m Mode) modeState {
	if m == ModeDimming {
		return dimmingState{}
	}
	return normalState{}
}

// stableMode returns the non-transient mode s is in or will resume to.
func stableMode(s modeState) Mode {
	switch st := s.(type) {
	case nightlightState:
		return st.resume.mode
	case previewState:
		return st.resume.mode
	default:
		return s.mode()
	}
}

// resumeOf returns the resume data of a transient state.
func resumeOf(s modeState) (resume, bool) {
	switch st := s.(type) {
	case nightlightState:
		return st.resume, true
	case previewState:
		return st.resume, true
	default:
		return resume{}, false
	}
}

// env is the read-only context a transition is evaluated in.
type env struct {
	now                time.Time
	current            Color
	nightlightDuration time.Duration
	previewTimeout     time.Duration
	// stableTarget returns the live target color of NORMAL or DIMMING
	stableTarget func(Mode) Color
}

type event interface {
	isEvent()
}

type switchEvent struct{ target Mode }

type tickEvent struct{}

type previewColorEvent struct{ color Color }

func (switchEvent) isEvent()       {}
func (tickEvent) isEvent()         {}
func (previewColorEvent) isEvent() {}

// effects are the side effects a transition asks the controller to apply.
type effects struct {
	fade        bool // start a transition fade from the current color
	modeChanged bool
	persist     bool // the persisted manual override flag changed
}

// transition computes the next state for ev. It never mutates s.
func transition(s modeState, ev event, e env) (modeState, effects) {
	var next modeState
	var fx effects

	switch ev := ev.(type) {
	case switchEvent:
		next, fx = switchTo(s, ev.target, e)
	case tickEvent:
		next, fx = tick(s, e)
	case previewColorEvent:
		next = s
		if st, ok := s.(previewState); ok {
			st.color = ev.color.Clone()
			st.clock = e.now
			next = st
		}
	default:
		next = s
	}

	if stableMode(next) != stableMode(s) {
		fx.persist = true
	}
	return next, fx
}

func switchTo(s modeState, target Mode, e env) (modeState, effects) {
	if target == s.mode() {
		if st, ok := s.(nightlightState); ok {
			st.offAt = e.now.Add(e.nightlightDuration)
			return st, effects{}
		}
		return s, effects{}
	}

	fx := effects{fade: true, modeChanged: true}
	if !target.Transient() {
		return stableState(target), fx
	}

	r, ok := resumeOf(s)
	if !ok {
		r = resume{mode: s.mode(), color: e.current.Clone()}
	}

	if target == ModeNightlight {
		return nightlightState{resume: r, offAt: e.now.Add(e.nightlightDuration)}, fx
	}
	return previewState{resume: r, clock: e.now, color: e.current.Clone()}, fx
}

func tick(s modeState, e env) (modeState, effects) {
	switch st := s.(type) {
	case nightlightState:
		if !e.now.Before(st.offAt) {
			return stableState(st.resume.mode), effects{fade: true, modeChanged: true}
		}
		st.resume.color = e.stableTarget(st.resume.mode)
		return st, effects{}
	case previewState:
		if e.previewTimeout > 0 && !e.now.Before(st.clock.Add(e.previewTimeout)) {
			return stableState(st.resume.mode), effects{fade: true, modeChanged: true}
		}
		st.resume.color = e.stableTarget(st.resume.mode)
		return st, effects{}
	default:
		return s, effects{}
	}
}
