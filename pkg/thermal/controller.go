package thermal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"github.com/jmylchreest/reeflightd/internal/events"
)

// ShutdownReasonOverheated is the reason passed to the power rail on an
// overheat shutdown.
const ShutdownReasonOverheated = "overheated"

// OverheatCountMax is the number of consecutive overheated ticks tolerated
// while powered; the next one shuts the power rail down.
const OverheatCountMax = 3

// ErrSensorFault is returned by sensors that cannot produce a reading.
var ErrSensorFault = fmt.Errorf("temperature sensor fault: %w", errors.ErrDeviceUnavailable)

// Sensor reads the board temperature in °C. ReadTemp must not block.
type Sensor interface {
	ReadTemp() (int, error)
}

// FanStatus is the state reported by a fan.
type FanStatus struct {
	Power uint8 `json:"power"`
}

// Fan is the fan actuator. Power values are percentages.
type Fan interface {
	SetPower(power uint8)
	Power() uint8
	Status() FanStatus
}

// PowerRail is the shared power state and emergency shutdown trigger.
type PowerRail interface {
	IsOn() bool
	Shutdown(reason string)
}

// Persister stores settings on a best-effort basis.
type Persister interface {
	Persist(namespace string, v any)
}

// Status is a snapshot of the thermal runtime state.
type Status struct {
	Temperature   int       `json:"temperature"`
	SensorFault   bool      `json:"sensor_fault"`
	FanPower      uint8     `json:"fan_power"`
	FanMode       FanMode   `json:"fan_mode"`
	OverheatCount int       `json:"overheat_count"`
	PID           PID       `json:"pid"`
	LastTick      time.Time `json:"last_tick,omitzero"`
}

// FanChange is the payload of a fan change event.
type FanChange struct {
	Power       uint8 `json:"power"`
	Temperature int   `json:"temperature"`
}

// Overheat is the payload of an overheat event.
type Overheat struct {
	Temperature    int   `json:"temperature"`
	OverheatedTemp uint8 `json:"overheated_temp"`
	Count          int   `json:"count"`
	Shutdown       bool  `json:"shutdown"`
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock overrides the clock used when a settings change re-evaluates
// the loop outside a tick.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller is the thermal loop: a PID fan controller wrapped in an
// overheat interlock. Tick and every public operation are serialized by mu.
type Controller struct {
	mu        sync.Mutex
	logger    *slog.Logger
	sensor    Sensor
	fan       Fan
	rail      PowerRail
	persister Persister
	bus       events.Publisher
	pending   []events.Event
	clock     func() time.Time

	settings      Settings
	pid           PID
	overheatCount int
	temp          int
	sensorFault   bool
	lastTick      time.Time
}

// NewController creates a thermal controller. Stored settings that break
// an invariant are replaced by the defaults.
func NewController(logger *slog.Logger, sensor Sensor, fan Fan, rail PowerRail, persister Persister, settings Settings, opts ...Option) (*Controller, error) {
	if sensor == nil || fan == nil || rail == nil {
		return nil, errors.InvalidInputf("sensor, fan and power rail are required")
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("Stored thermal settings invalid, using defaults", "error", err)
		settings = DefaultSettings()
	}

	c := &Controller{
		logger:    logger,
		sensor:    sensor,
		fan:       fan,
		rail:      rail,
		persister: persister,
		clock:     time.Now,
		settings:  settings,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetEventBus attaches a bus events are published to.
func (c *Controller) SetEventBus(bus events.Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
}

// Start puts the fan in its initial state and evaluates the loop once.
func (c *Controller) Start(now time.Time) {
	defer c.flush()
	c.mu.Lock()
	if c.settings.FanMode != FanModeDisabled {
		c.fan.SetPower(0)
	}
	shutdown := c.reinitLocked(now)
	s := c.settings
	c.mu.Unlock()

	c.logger.Info("Thermal controller started",
		"fan_mode", s.FanMode.String(),
		"keep_temp", s.KeepTemp,
		"overheated_temp", s.OverheatedTemp)
	c.shutdown(shutdown)
}

// Tick runs one evaluation of the loop.
func (c *Controller) Tick(now time.Time) {
	defer c.flush()
	c.mu.Lock()
	shutdown := c.tickLocked(now)
	c.mu.Unlock()

	c.shutdown(shutdown)
}

// shutdown asks the power rail to shut down outside the controller lock,
// since the rail runs hooks of its own.
func (c *Controller) shutdown(requested bool) {
	if requested {
		c.rail.Shutdown(ShutdownReasonOverheated)
	}
}

// tickLocked evaluates the loop and reports whether an emergency shutdown
// must be requested.
func (c *Controller) tickLocked(now time.Time) bool {
	c.lastTick = now
	if c.settings.FanMode == FanModeDisabled {
		return false
	}

	temp, err := c.sensor.ReadTemp()
	on := c.rail.IsOn()
	if err != nil {
		if !c.sensorFault {
			c.logger.Error("Temperature sensor fault or not connected", "error", err, "power_on", on)
			c.emit(events.ThermalSensorFault, map[string]string{"error": err.Error()})
		}
		c.sensorFault = true
		if on {
			c.setFanLocked(OutputMax)
		} else {
			c.setFanLocked(0)
		}
		return false
	}
	if c.sensorFault {
		c.logger.Info("Temperature sensor recovered", "temp", temp)
		c.sensorFault = false
	}
	c.temp = temp

	// idle: powered off and cool enough
	if !on && temp <= int(c.settings.KeepTemp) {
		if c.fan.Status().Power > 0 {
			c.setFanLocked(0)
		}
		c.overheatCount = 0
		return false
	}

	if on && temp >= int(c.settings.OverheatedTemp) {
		c.overheatCount++
		c.logger.Warn("Too hot", "temp", temp, "count", c.overheatCount, "max", OverheatCountMax)
		if c.overheatCount > OverheatCountMax {
			c.setFanLocked(OutputMax)
			c.logger.Warn("Over temperature, shutting down", "temp", temp, "overheated_temp", c.settings.OverheatedTemp)
			c.emit(events.ThermalOverheat, Overheat{
				Temperature:    temp,
				OverheatedTemp: c.settings.OverheatedTemp,
				Count:          c.overheatCount,
				Shutdown:       true,
			})
			c.overheatCount = 0
			return true
		}
	} else {
		c.overheatCount = 0
	}

	var power uint8
	switch c.settings.FanMode {
	case FanModePID:
		power = c.pid.Step(c.settings, temp)
	case FanModeManual:
		power = c.settings.FanManualPower
	}
	if power != c.fan.Power() {
		c.setFanLocked(power)
		c.logger.Info("Changing fan power", "temp", temp, "keep_temp", c.settings.KeepTemp, "fan", power)
	}
	return false
}

func (c *Controller) setFanLocked(power uint8) {
	changed := c.fan.Power() != power
	c.fan.SetPower(power)
	if changed {
		c.emit(events.ThermalFanChanged, FanChange{Power: power, Temperature: c.temp})
	}
}

// reinitLocked clears the PID accumulator and evaluates once, so a changed
// gain does not act on a stale derivative.
func (c *Controller) reinitLocked(now time.Time) bool {
	if c.settings.FanMode != FanModePID {
		return false
	}
	c.pid.Reset()
	return c.tickLocked(now)
}

func (c *Controller) persistLocked() {
	if c.persister != nil {
		c.persister.Persist(Namespace, c.settings)
	}
	c.emit(events.ThermalSettingsChanged, c.settings)
}

func (c *Controller) emit(t events.EventType, data any) {
	if c.bus == nil {
		return
	}
	c.pending = append(c.pending, events.NewEvent(t, data))
}

func (c *Controller) flush() {
	c.mu.Lock()
	pending, bus := c.pending, c.bus
	c.pending = nil
	c.mu.Unlock()

	for _, e := range pending {
		bus.Publish(e)
	}
}

// update validates and applies a settings change, persists it and, when
// reinit is set, re-evaluates the loop.
func (c *Controller) update(reinit bool, fn func(s *Settings)) error {
	defer c.flush()
	c.mu.Lock()

	next := c.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.settings = next
	c.persistLocked()

	var shutdown bool
	if reinit {
		shutdown = c.reinitLocked(c.clock())
	}
	c.mu.Unlock()

	c.shutdown(shutdown)
	return nil
}

// SetPID sets the PID gains and re-initializes the loop.
func (c *Controller) SetPID(kp, ki, kd int32) error {
	return c.update(true, func(s *Settings) {
		s.Kp, s.Ki, s.Kd = kp, ki, kd
	})
}

// SetKeepTemp sets the temperature setpoint. It must be at least
// MinKeepTemp and below the overheated temperature.
func (c *Controller) SetKeepTemp(temp uint8) error {
	return c.update(false, func(s *Settings) {
		s.KeepTemp = temp
	})
}

// SetOverheatedTemp sets the emergency threshold. It must stay above the
// keep temperature.
func (c *Controller) SetOverheatedTemp(temp uint8) error {
	return c.update(false, func(s *Settings) {
		s.OverheatedTemp = temp
	})
}

// SetTemps changes the keep and overheated temperatures together. A nil
// pointer leaves that field unchanged. The pair is validated as a whole and
// committed at once, so a rejected update leaves both untouched.
func (c *Controller) SetTemps(keep, overheated *uint8) error {
	return c.update(false, func(s *Settings) {
		if keep != nil {
			s.KeepTemp = *keep
		}
		if overheated != nil {
			s.OverheatedTemp = *overheated
		}
	})
}

// SetFanMode changes the fan mode. Entering PID re-initializes the loop.
func (c *Controller) SetFanMode(mode FanMode) error {
	if !mode.Valid() {
		return errors.InvalidInputf("invalid fan mode %d", mode)
	}
	return c.update(mode == FanModePID, func(s *Settings) {
		s.FanMode = mode
	})
}

// SetFanManualPower sets the power used in MANUAL mode.
func (c *Controller) SetFanManualPower(power uint8) error {
	return c.update(false, func(s *Settings) {
		s.FanManualPower = power
	})
}

// Settings returns a copy of the thermal settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Temperature returns the last successful reading and whether the sensor
// is currently faulted.
func (c *Controller) Temperature() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.temp, c.sensorFault
}

// Status returns a snapshot of the runtime state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Temperature:   c.temp,
		SensorFault:   c.sensorFault,
		FanPower:      c.fan.Power(),
		FanMode:       c.settings.FanMode,
		OverheatCount: c.overheatCount,
		PID:           c.pid,
		LastTick:      c.lastTick,
	}
}
