package led

import "time"

// Lerp interpolates each channel from start to end after elapsed out of
// duration milliseconds, rounding to nearest with halves away from zero.
// elapsed is clamped to [0, duration]; vectors of different length yield end.
func Lerp(start, end Color, elapsed, duration int64) Color {
	if len(start) != len(end) || duration <= 0 || elapsed >= duration {
		return end.Clone()
	}
	if elapsed <= 0 {
		return start.Clone()
	}

	out := make(Color, len(end))
	for i := range end {
		s, e := int64(start[i]), int64(end[i])
		out[i] = uint8(s + divRound((e-s)*elapsed, duration))
	}
	return out
}

// divRound divides n by a positive d rounding half away from zero.
func divRound(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

// Fade returns the color of a one-shot fade from start to end that began at
// startTime and lasts duration, observed at now. A zero duration is an
// instant jump to end.
func Fade(start, end Color, startTime time.Time, duration time.Duration, now time.Time) Color {
	if !now.Before(startTime.Add(duration)) {
		return end.Clone()
	}
	if !now.After(startTime) {
		return start.Clone()
	}
	return Lerp(start, end, now.Sub(startTime).Milliseconds(), duration.Milliseconds())
}

// Fader records a single transition fade. EndColor is the last target the
// fade was evaluated against; the live target may move while it runs.
type Fader struct {
	StartColor Color         `json:"start_color"`
	EndColor   Color         `json:"end_color"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
}

// Start begins a new fade from the given color at now.
func (f *Fader) Start(from, to Color, now time.Time, duration time.Duration) {
	f.StartColor = from.Clone()
	f.EndColor = to.Clone()
	f.StartTime = now
	f.Duration = duration
}

// Active reports whether the fade has not yet reached its end at now.
func (f *Fader) Active(now time.Time) bool {
	if f.StartTime.IsZero() {
		return false
	}
	return now.Before(f.StartTime.Add(f.Duration))
}

// At evaluates the fade at now towards end and records end as the fade target.
func (f *Fader) At(now time.Time, end Color) Color {
	f.EndColor = end.Clone()
	return Fade(f.StartColor, end, f.StartTime, f.Duration, now)
}

// Remaining returns how long the fade still runs after now.
func (f *Fader) Remaining(now time.Time) time.Duration {
	if !f.Active(now) {
		return 0
	}
	return f.StartTime.Add(f.Duration).Sub(now)
}
