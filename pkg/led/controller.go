package led

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/internal/events"
)

// DutyWriter receives the corrected duties once per tick. Implementations
// must not block.
type DutyWriter interface {
	WriteDuties(duties Duties)
}

// Persister stores settings on a best-effort basis. Persist must return
// immediately; failures are the persister's concern.
type Persister interface {
	Persist(namespace string, v any)
}

// Config holds the construction-time parameters of a Controller.
type Config struct {
	Channels       int
	DutyMax        uint16
	Transition     time.Duration  // mode transition fade length
	PreviewTimeout time.Duration  // PREVIEW inactivity timeout, 0 disables
	Location       *time.Location // time zone the schedule is evaluated in
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock overrides the clock used by operations invoked outside a tick.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// ModeChange is the payload of a mode change event.
type ModeChange struct {
	From Mode `json:"from"`
	To   Mode `json:"to"`
}

// Controller is the LED mode state machine. It owns the user settings and
// runtime status; Tick and every public operation are serialized by mu.
type Controller struct {
	mu        sync.Mutex
	logger    *slog.Logger
	writer    DutyWriter
	persister Persister
	bus       events.Publisher
	pending   []events.Event
	clock     func() time.Time

	channels       int
	transitionTime time.Duration
	previewTimeout time.Duration
	loc            *time.Location
	linear         *Corrector
	corrector      *Corrector

	settings UserSettings
	schedule *Schedule
	state    modeState
	color    Color // displayed color, post-fade and pre-correction
	held     Color // last stable target, shown while the schedule is empty
	fader    Fader
	blank    bool
}

// NewController creates a controller from stored settings. Invalid stored
// fields fall back to their defaults. The initial mode is DIMMING when the
// manual override flag is set, NORMAL otherwise.
func NewController(logger *slog.Logger, cfg Config, writer DutyWriter, persister Persister, settings UserSettings, opts ...Option) (*Controller, error) {
	if cfg.Channels < 1 || cfg.Channels > MaxChannels {
		return nil, errors.InvalidInputf("channel count %d outside [1,%d]", cfg.Channels, MaxChannels)
	}
	if cfg.Transition < 0 || cfg.PreviewTimeout < 0 {
		return nil, errors.InvalidInputf("durations must not be negative")
	}
	if writer == nil {
		return nil, errors.InvalidInputf("duty writer is required")
	}
	if cfg.DutyMax == 0 {
		cfg.DutyMax = DefaultDutyMax
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	linear, err := NewCorrector(CurveLinear, cfg.DutyMax)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		logger:         logger,
		writer:         writer,
		persister:      persister,
		clock:          time.Now,
		channels:       cfg.Channels,
		transitionTime: cfg.Transition,
		previewTimeout: cfg.PreviewTimeout,
		loc:            cfg.Location,
		linear:         linear,
		color:          Off(cfg.Channels),
		held:           Off(cfg.Channels),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.settings, c.schedule = settings.sanitize(cfg.Channels, logger)
	c.corrector, err = NewCorrector(c.settings.Correction, cfg.DutyMax)
	if err != nil {
		return nil, err
	}
	if c.settings.ManualOverride {
		c.state = dimmingState{}
	} else {
		c.state = normalState{}
	}

	return c, nil
}

// SetEventBus attaches a bus events are published to.
func (c *Controller) SetEventBus(bus events.Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
}

// Start begins the power-on fade from off to the initial mode's target.
func (c *Controller) Start(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.color = Off(c.channels)
	c.fader.Start(c.color, c.targetLocked(now), now, c.transitionTime)
	c.logger.Info("LED controller started",
		"mode", c.state.mode().String(),
		"channels", c.channels,
		"scheduler_enabled", c.settings.SchedulerEnabled,
		"keyframes", c.schedule.Len())
}

// Tick advances the state machine to now and writes the resulting duties
// exactly once.
func (c *Controller) Tick(now time.Time) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	// mode timers keep running while blank
	c.applyLocked(tickEvent{}, now)

	if c.blank {
		c.writer.WriteDuties(make(Duties, c.channels))
		return
	}

	target := c.targetLocked(now)
	if c.fader.Active(now) {
		c.color = c.fader.At(now, target)
	} else {
		c.color = target
	}
	c.writer.WriteDuties(c.correctorLocked().Apply(c.color))
}

// applyLocked runs one transition and carries out its effects.
func (c *Controller) applyLocked(ev event, now time.Time) {
	prev := c.state
	next, fx := transition(prev, ev, env{
		now:                now,
		current:            c.color,
		nightlightDuration: time.Duration(c.settings.NightlightDuration) * time.Second,
		previewTimeout:     c.previewTimeout,
		stableTarget: func(m Mode) Color {
			return c.stableTargetLocked(m, now)
		},
	})
	c.state = next

	if fx.fade {
		c.fader.Start(c.color, c.targetLocked(now), now, c.transitionTime)
	}
	if fx.modeChanged {
		c.logger.Info("LED mode changed", "from", prev.mode().String(), "to", next.mode().String())
		c.emit(events.LEDModeChanged, ModeChange{From: prev.mode(), To: next.mode()})
	}
	if fx.persist {
		c.settings.ManualOverride = stableMode(next) == ModeDimming
		c.persistLocked()
	}
}

// targetLocked returns the color the current mode wants to display at now.
func (c *Controller) targetLocked(now time.Time) Color {
	switch st := c.state.(type) {
	case nightlightState:
		return c.settings.NightlightColor.Clone()
	case previewState:
		return st.color.Clone()
	default:
		return c.stableTargetLocked(st.mode(), now)
	}
}

// stableTargetLocked returns the live target of NORMAL or DIMMING.
func (c *Controller) stableTargetLocked(m Mode, now time.Time) Color {
	if m == ModeDimming || !c.settings.SchedulerEnabled {
		c.held = c.settings.ManualColor.Clone()
		return c.held.Clone()
	}

	color, err := c.schedule.ColorAt(TimeOfDay(now.In(c.loc)))
	if err != nil {
		// empty schedule: hold the last known color
		return c.held.Clone()
	}
	c.held = color
	return color.Clone()
}

func (c *Controller) correctorLocked() *Corrector {
	if c.settings.CorrectionEnabled {
		return c.corrector
	}
	return c.linear
}

func (c *Controller) persistLocked() {
	if c.persister != nil {
		c.persister.Persist(Namespace, c.settings.Clone())
	}
	c.emit(events.LEDSettingsChanged, c.settings.Clone())
}

func (c *Controller) emit(t events.EventType, data any) {
	if c.bus == nil {
		return
	}
	c.pending = append(c.pending, events.NewEvent(t, data))
}

// flush publishes events queued while the lock was held.
func (c *Controller) flush() {
	c.mu.Lock()
	pending, bus := c.pending, c.bus
	c.pending = nil
	c.mu.Unlock()

	for _, e := range pending {
		bus.Publish(e)
	}
}

// SwitchMode moves the state machine to m.
func (c *Controller) SwitchMode(m Mode) error {
	if !m.Valid() {
		return errors.InvalidInputf("invalid mode %d", m)
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applyLocked(switchEvent{target: m}, c.clock())
	return nil
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.mode()
}

// SetColor sets the color appropriate to the current mode: the preview
// color in PREVIEW, the manual color otherwise. NIGHTLIGHT keeps showing the
// nightlight color and the new manual color is resumed when it ends. The
// blank flag is cleared.
func (c *Controller) SetColor(color Color) error {
	if err := color.Validate(c.channels); err != nil {
		return err
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setColorLocked(color, c.clock())
}

func (c *Controller) setColorLocked(color Color, now time.Time) error {
	switch c.state.(type) {
	case nightlightState:
		c.settings.ManualColor = color.Clone()
		if c.blank {
			c.fader.Start(c.color, c.targetLocked(now), now, c.transitionTime)
		}
		c.persistLocked()
	case previewState:
		c.applyLocked(previewColorEvent{color: color}, now)
	case dimmingState:
		c.settings.ManualColor = color.Clone()
		c.fader = Fader{}
		c.persistLocked()
	case normalState:
		c.settings.ManualColor = color.Clone()
		if !c.settings.SchedulerEnabled {
			c.fader.Start(c.color, color, now, c.transitionTime)
		}
		c.persistLocked()
	}
	c.blank = false
	return nil
}

// Color returns the displayed color (post-fade, pre-correction).
func (c *Controller) Color() Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color.Clone()
}

// Duties returns the duties of the displayed color.
func (c *Controller) Duties() Duties {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blank {
		return make(Duties, c.channels)
	}
	return c.correctorLocked().Apply(c.color)
}

// ChannelPower returns the displayed power of channel ch.
func (c *Controller) ChannelPower(ch int) (uint8, error) {
	if ch < 0 || ch >= c.channels {
		return 0, errors.InvalidInputf("channel %d outside [0,%d)", ch, c.channels)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.color[ch], nil
}

// SetChannelPower changes a single channel of the color editable in the
// current mode, with the same rules as SetColor.
func (c *Controller) SetChannelPower(ch int, power uint8) error {
	if ch < 0 || ch >= c.channels {
		return errors.InvalidInputf("channel %d outside [0,%d)", ch, c.channels)
	}
	if power > MaxPower {
		return errors.InvalidInputf("power %d out of range [0,%d]", power, MaxPower)
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	var color Color
	if st, ok := c.state.(previewState); ok {
		color = st.color.Clone()
	} else {
		color = c.settings.ManualColor.Clone()
	}
	color[ch] = power
	return c.setColorLocked(color, c.clock())
}

// SetSchedule atomically replaces the schedule. On error the previous
// schedule stays active.
func (c *Controller) SetSchedule(items []Keyframe) error {
	sched, err := NewSchedule(items, c.channels)
	if err != nil {
		return err
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	c.schedule = sched
	c.settings.Schedule = sched.Items()
	if _, ok := c.state.(normalState); ok && c.settings.SchedulerEnabled && !c.blank {
		c.fader.Start(c.color, c.targetLocked(now), now, c.transitionTime)
	}
	c.persistLocked()
	c.logger.Info("Schedule replaced", "keyframes", sched.Len())
	return nil
}

// Schedule returns the active keyframes in ascending order.
func (c *Controller) Schedule() []Keyframe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schedule.Items()
}

// SetSchedulerEnabled switches NORMAL between the schedule and the manual
// color, fading to the new target.
func (c *Controller) SetSchedulerEnabled(enabled bool) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settings.SchedulerEnabled == enabled {
		return
	}
	now := c.clock()
	c.settings.SchedulerEnabled = enabled
	if _, ok := c.state.(normalState); ok && !c.blank {
		c.fader.Start(c.color, c.targetLocked(now), now, c.transitionTime)
	}
	c.persistLocked()
	c.logger.Info("Scheduler toggled", "enabled", enabled)
}

// SetNightlightDuration sets the NIGHTLIGHT length in seconds. A running
// nightlight keeps its current off time.
func (c *Controller) SetNightlightDuration(seconds uint16) error {
	if seconds == 0 {
		return errors.InvalidInputf("nightlight duration must be positive")
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.NightlightDuration = seconds
	c.persistLocked()
	return nil
}

// NightlightRemaining returns the time left before NIGHTLIGHT ends, or zero
// when not in NIGHTLIGHT.
func (c *Controller) NightlightRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state.(nightlightState)
	if !ok {
		return 0
	}
	remaining := st.offAt.Sub(c.clock())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SetNightlightColor sets the color held during NIGHTLIGHT.
func (c *Controller) SetNightlightColor(color Color) error {
	if err := color.Validate(c.channels); err != nil {
		return err
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.NightlightColor = color.Clone()
	c.persistLocked()
	return nil
}

// SetCorrection enables or disables perceptual correction. An empty curve
// keeps the configured one.
func (c *Controller) SetCorrection(enabled bool, curve Curve) error {
	if curve == "" {
		curve = c.settingsCurve()
	}
	parsed, err := ParseCurve(string(curve))
	if err != nil {
		return err
	}
	corrector, err := NewCorrector(parsed, c.linear.DutyMax())
	if err != nil {
		return err
	}

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.corrector = corrector
	c.settings.CorrectionEnabled = enabled
	c.settings.Correction = parsed
	c.persistLocked()
	return nil
}

func (c *Controller) settingsCurve() Curve {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Correction
}

// Blank turns every channel off immediately and keeps it off until a color
// is set or the controller is unblanked.
func (c *Controller) Blank() {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blank = true
	c.color = Off(c.channels)
	c.fader = Fader{}
	c.writer.WriteDuties(make(Duties, c.channels))
	c.emit(events.LEDBlanked, map[string]bool{"blank": true})
	c.logger.Info("LED output blanked")
}

// Unblank clears the blank flag and fades in to the current target.
func (c *Controller) Unblank() {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.blank {
		return
	}
	now := c.clock()
	c.blank = false
	c.fader.Start(Off(c.channels), c.targetLocked(now), now, c.transitionTime)
	c.emit(events.LEDBlanked, map[string]bool{"blank": false})
	c.logger.Info("LED output unblanked")
}

// IsBlank reports whether the output is blanked.
func (c *Controller) IsBlank() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blank
}

// ChannelCount returns the number of channels.
func (c *Controller) ChannelCount() int {
	return c.channels
}

// DutyMax returns the full-scale duty.
func (c *Controller) DutyMax() uint16 {
	return c.linear.DutyMax()
}

// Settings returns a copy of the user settings.
func (c *Controller) Settings() UserSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// Status returns a snapshot of the runtime state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	st := Status{
		Mode:       c.state.mode(),
		Color:      c.color.Clone(),
		Blank:      c.blank,
		ResumeMode: stableMode(c.state),
		Fade: Fader{
			StartColor: c.fader.StartColor.Clone(),
			EndColor:   c.fader.EndColor.Clone(),
			StartTime:  c.fader.StartTime,
			Duration:   c.fader.Duration,
		},
		Fading: c.fader.Active(now),
	}
	if c.blank {
		st.Duties = make(Duties, c.channels)
	} else {
		st.Duties = c.correctorLocked().Apply(c.color)
	}

	switch s := c.state.(type) {
	case nightlightState:
		st.NightlightOffTime = s.offAt
		st.ColorToResume = s.resume.color.Clone()
	case previewState:
		st.PreviewClock = s.clock
		st.ColorToResume = s.resume.color.Clone()
	}
	return st
}
