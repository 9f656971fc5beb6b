// Package ticker runs the periodic control loops.
package ticker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Task is a named callback run at a fixed period. Fn receives the tick
// time and must not block; ticks missed while Fn runs are dropped.
type Task struct {
	Name   string
	Period time.Duration
	Fn     func(now time.Time)

	ticks    atomic.Uint64
	overruns atomic.Uint64
	panics   atomic.Uint64
	last     atomic.Int64 // unix nanos of the last tick
}

// Stats is a snapshot of a task's counters.
type Stats struct {
	Name     string        `json:"name"`
	Period   time.Duration `json:"period"`
	Ticks    uint64        `json:"ticks"`
	Overruns uint64        `json:"overruns"`
	Panics   uint64        `json:"panics"`
	LastTick time.Time     `json:"last_tick,omitzero"`
}

// Run calls Fn every Period until ctx is done. A panicking Fn is logged
// and the loop carries on with the next tick.
func (t *Task) Run(ctx context.Context, logger *slog.Logger) {
	if t.Period <= 0 {
		logger.Error("Task period must be positive, not starting", "task", t.Name, "period", t.Period)
		return
	}

	ticker := time.NewTicker(t.Period)
	defer ticker.Stop()
	logger.Info("Task started", "task", t.Name, "period", t.Period)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Task stopped", "task", t.Name, "ticks", t.ticks.Load(), "overruns", t.overruns.Load())
			return
		case now := <-ticker.C:
			t.tick(logger, now)
		}
	}
}

func (t *Task) tick(logger *slog.Logger, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.panics.Add(1)
			logger.Error("Task panicked", "task", t.Name, "panic", r)
		}
	}()

	t.ticks.Add(1)
	t.last.Store(now.UnixNano())
	start := time.Now()
	t.Fn(now)
	if elapsed := time.Since(start); elapsed > t.Period {
		t.overruns.Add(1)
		logger.Warn("Task overran its period", "task", t.Name, "elapsed", elapsed, "period", t.Period)
	}
}

// Stats returns the task counters.
func (t *Task) Stats() Stats {
	s := Stats{
		Name:     t.Name,
		Period:   t.Period,
		Ticks:    t.ticks.Load(),
		Overruns: t.overruns.Load(),
		Panics:   t.panics.Load(),
	}
	if last := t.last.Load(); last != 0 {
		s.LastTick = time.Unix(0, last)
	}
	return s
}
