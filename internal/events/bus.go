// Package events provides a lightweight in-process event bus for broadcasting
// controller state changes to subscribers (WebSocket hub, metrics).
package events

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of event.
type EventType string

const (
	// LED events
	LEDModeChanged     EventType = "led.mode_changed"
	LEDSettingsChanged EventType = "led.settings_changed"
	LEDBlanked         EventType = "led.blanked"

	// Thermal events
	ThermalSettingsChanged EventType = "thermal.settings_changed"
	ThermalFanChanged      EventType = "thermal.fan_changed"
	ThermalOverheat        EventType = "thermal.overheat"
	ThermalSensorFault     EventType = "thermal.sensor_fault"

	// Power events
	PowerChanged  EventType = "power.changed"
	PowerShutdown EventType = "power.shutdown"

	// Snapshot is sent once to each new WebSocket client.
	Snapshot EventType = "snapshot"
)

// Topic returns the part of the type before the first dot ("led" for
// led.mode_changed).
func (t EventType) Topic() string {
	topic, _, _ := strings.Cut(string(t), ".")
	return topic
}

// Matches reports whether the type is selected by filter, which is either
// a topic ("thermal") or a full type ("thermal.overheat").
func (t EventType) Matches(filter string) bool {
	return string(t) == filter || t.Topic() == filter
}

// Publisher is implemented by anything events can be sent to.
type Publisher interface {
	Publish(e Event)
}

// Event is a single event emitted by a producer.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON.
// If marshaling fails the Data field is set to null.
func NewEvent(t EventType, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      raw,
	}
}

// SubscriberFunc is a callback invoked for each event. It runs on the
// publisher's goroutine, often a control loop tick, and must not block.
type SubscriberFunc func(Event)

type subscription struct {
	id      uint64
	fn      SubscriberFunc
	filters []string
}

func (s subscription) wants(t EventType) bool {
	if len(s.filters) == 0 {
		return true
	}
	return slices.ContainsFunc(s.filters, t.Matches)
}

// Bus is a synchronous fan-out event bus. Subscribers are called in the
// order they subscribed.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for events matching any of filters (topics or
// full types), or for every event when none are given. The returned
// function unsubscribes and may be called more than once.
func (b *Bus) Subscribe(fn SubscriberFunc, filters ...string) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn, filters: filters})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
		b.mu.Unlock()
	}
}

// Publish calls every matching subscriber with e. The subscriber list is
// copied first so callbacks may subscribe or unsubscribe.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.wants(e.Type) {
			s.fn(e)
		}
	}
}
