package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(LEDModeChanged, map[string]string{"mode": "NIGHTLIGHT"})

	assert.Equal(t, LEDModeChanged, e.Type)
	assert.False(t, e.Timestamp.IsZero())
	assert.Len(t, e.ID, 36)
	assert.NotEqual(t, e.ID, NewEvent(LEDModeChanged, nil).ID)

	var data map[string]string
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "NIGHTLIGHT", data["mode"])
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	var received []Event
	var mu sync.Mutex

	unsub := bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	bus.Publish(NewEvent(ThermalOverheat, "hello"))
	bus.Publish(NewEvent(PowerShutdown, "goodbye"))

	mu.Lock()
	assert.Len(t, received, 2)
	assert.Equal(t, ThermalOverheat, received[0].Type)
	assert.Equal(t, PowerShutdown, received[1].Type)
	mu.Unlock()

	// Unsubscribe and verify no more events
	unsub()
	bus.Publish(NewEvent(LEDBlanked, nil))

	mu.Lock()
	assert.Len(t, received, 2)
	mu.Unlock()
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	var count1, count2 atomic.Int32

	unsub1 := bus.Subscribe(func(e Event) { count1.Add(1) })
	unsub2 := bus.Subscribe(func(e Event) { count2.Add(1) })

	bus.Publish(NewEvent(LEDModeChanged, nil))

	assert.Equal(t, int32(1), count1.Load())
	assert.Equal(t, int32(1), count2.Load())

	unsub1()
	bus.Publish(NewEvent(LEDModeChanged, nil))

	assert.Equal(t, int32(1), count1.Load())
	assert.Equal(t, int32(2), count2.Load())

	unsub2()
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Should not panic
	bus.Publish(NewEvent(LEDModeChanged, nil))
}

func TestEventTypeMatches(t *testing.T) {
	tests := []struct {
		typ    EventType
		filter string
		want   bool
	}{
		{ThermalOverheat, "thermal", true},
		{ThermalOverheat, "thermal.overheat", true},
		{ThermalOverheat, "thermal.fan_changed", false},
		{ThermalOverheat, "therm", false},
		{LEDBlanked, "power", false},
		{Snapshot, "snapshot", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.filter, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Matches(tt.filter))
		})
	}
	assert.Equal(t, "led", LEDModeChanged.Topic())
	assert.Equal(t, "snapshot", Snapshot.Topic())
}

func TestBusSubscribeFiltered(t *testing.T) {
	bus := NewBus()
	var got []EventType
	bus.Subscribe(func(e Event) { got = append(got, e.Type) }, "power", string(ThermalOverheat))

	for _, typ := range []EventType{LEDModeChanged, ThermalOverheat, ThermalFanChanged, PowerShutdown, PowerChanged} {
		bus.Publish(NewEvent(typ, nil))
	}
	assert.Equal(t, []EventType{ThermalOverheat, PowerShutdown, PowerChanged}, got)
}
