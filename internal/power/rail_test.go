package power

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/reeflightd/internal/events"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRailPowerOnOff(t *testing.T) {
	r := NewRail(testLogger(), false)
	var ons, offs int
	r.OnPowerOn(func() { ons++ })
	r.OnPowerOff(func() { offs++ })

	assert.False(t, r.IsOn())
	r.PowerOff()
	assert.Equal(t, 0, offs, "already off")

	r.PowerOn()
	r.PowerOn()
	assert.True(t, r.IsOn())
	assert.Equal(t, 1, ons)

	r.PowerOff()
	assert.False(t, r.IsOn())
	assert.Equal(t, 1, offs)
}

func TestRailShutdown(t *testing.T) {
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	r := NewRail(testLogger(), true)
	r.clock = func() time.Time { return at }

	var offs int
	r.OnPowerOff(func() { offs++ })

	bus := events.NewBus()
	var mu sync.Mutex
	var got []events.Event
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	r.SetEventBus(bus)

	r.Shutdown("overheated")

	st := r.State()
	assert.False(t, st.On)
	assert.Equal(t, "overheated", st.ShutdownReason)
	assert.Equal(t, at, st.ShutdownAt)
	assert.Equal(t, 1, st.Shutdowns)
	assert.Equal(t, 1, offs)

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, got, 1) {
		assert.Equal(t, events.PowerShutdown, got[0].Type)
		assert.JSONEq(t, `{"on":false,"reason":"overheated"}`, string(got[0].Data))
	}
}

func TestRailShutdownWhileOffStillRecorded(t *testing.T) {
	r := NewRail(testLogger(), false)
	r.Shutdown("test")
	r.Shutdown("test")
	assert.Equal(t, 2, r.State().Shutdowns)
}

func TestRailConcurrentReads(t *testing.T) {
	r := NewRail(testLogger(), true)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					r.PowerOn()
				} else {
					r.PowerOff()
				}
				_ = r.IsOn()
			}
		}(i)
	}
	wg.Wait()
}
