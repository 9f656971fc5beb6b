// Package power tracks the main power rail of the lighting board and
// implements the emergency shutdown requested by the thermal interlock.
package power

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/reeflightd/internal/events"
)

// Hook is called after the rail changes state. Hooks run outside the rail
// lock and must not block.
type Hook func()

// State is a snapshot of the rail.
type State struct {
	On             bool      `json:"on"`
	ShutdownReason string    `json:"shutdown_reason,omitempty"`
	ShutdownAt     time.Time `json:"shutdown_at,omitzero"`
	Shutdowns      int       `json:"shutdowns"`
}

// Changed is the payload of power.changed and power.shutdown events.
type Changed struct {
	On     bool   `json:"on"`
	Reason string `json:"reason,omitempty"`
}

// Rail is the shared power state. IsOn is lock-free so control loops can
// read it every tick.
type Rail struct {
	on     atomic.Bool
	logger *slog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	bus       events.Publisher
	onHooks   []Hook
	offHooks  []Hook
	reason    string
	at        time.Time
	shutdowns int
}

// NewRail creates a rail in the given initial state.
func NewRail(logger *slog.Logger, on bool) *Rail {
	r := &Rail{
		logger: logger,
		clock:  time.Now,
	}
	r.on.Store(on)
	return r
}

// SetEventBus attaches a bus state changes are published to.
func (r *Rail) SetEventBus(bus events.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bus = bus
}

// OnPowerOn registers a hook run whenever the rail turns on.
func (r *Rail) OnPowerOn(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHooks = append(r.onHooks, h)
}

// OnPowerOff registers a hook run whenever the rail turns off, including
// emergency shutdowns.
func (r *Rail) OnPowerOff(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offHooks = append(r.offHooks, h)
}

// IsOn reports whether the rail is powered.
func (r *Rail) IsOn() bool {
	return r.on.Load()
}

// PowerOn turns the rail on. It is a no-op if already on.
func (r *Rail) PowerOn() {
	if r.on.Swap(true) {
		return
	}
	r.logger.Info("Power on")
	r.notify(events.PowerChanged, Changed{On: true}, true)
}

// PowerOff turns the rail off. It is a no-op if already off.
func (r *Rail) PowerOff() {
	if !r.on.Swap(false) {
		return
	}
	r.logger.Info("Power off")
	r.notify(events.PowerChanged, Changed{On: false}, false)
}

// Shutdown turns the rail off on behalf of a safety mechanism and records
// why. Unlike PowerOff it always records the request, even when the rail
// is already off.
func (r *Rail) Shutdown(reason string) {
	wasOn := r.on.Swap(false)

	r.mu.Lock()
	r.reason = reason
	r.at = r.clock()
	r.shutdowns++
	r.mu.Unlock()

	r.logger.Warn("Emergency shutdown", "reason", reason, "was_on", wasOn)
	r.notify(events.PowerShutdown, Changed{On: false, Reason: reason}, false)
}

// State returns a snapshot of the rail.
func (r *Rail) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		On:             r.on.Load(),
		ShutdownReason: r.reason,
		ShutdownAt:     r.at,
		Shutdowns:      r.shutdowns,
	}
}

func (r *Rail) notify(t events.EventType, data Changed, on bool) {
	r.mu.Lock()
	bus := r.bus
	hooks := r.offHooks
	if on {
		hooks = r.onHooks
	}
	hooks = append([]Hook(nil), hooks...)
	r.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	if bus != nil {
		bus.Publish(events.NewEvent(t, data))
	}
}
