package led

import (
	"slices"
	"sort"
	"time"

	"github.com/jmylchreest/reeflightd/internal/errors"
)

// SchedulerCapacity is the maximum number of keyframes in one schedule.
const SchedulerCapacity = 48

// Keyframe is a schedule waypoint: a color reached at a time of day.
type Keyframe struct {
	Instant uint32 `json:"instant" yaml:"instant"` // seconds since midnight
	Color   Color  `json:"color" yaml:"color"`
}

// Schedule is an immutable, sorted set of keyframes evaluated cyclically
// over a day. Replace a schedule by building a new one.
type Schedule struct {
	items []Keyframe
}

// NewSchedule validates items against the channel count and returns them
// as a sorted schedule. The input slice is not retained.
func NewSchedule(items []Keyframe, channels int) (*Schedule, error) {
	if len(items) > SchedulerCapacity {
		return nil, errors.WrapErrorf(ErrScheduleTooLarge, "%d keyframes, capacity %d", len(items), SchedulerCapacity)
	}

	seen := make(map[uint32]struct{}, len(items))
	sorted := make([]Keyframe, 0, len(items))
	for i, kf := range items {
		if kf.Instant >= SecondsPerDay {
			return nil, errors.InvalidInputf("keyframe %d instant %d outside [0,%d)", i, kf.Instant, SecondsPerDay)
		}
		if err := kf.Color.Validate(channels); err != nil {
			return nil, errors.WrapErrorf(err, "keyframe %d", i)
		}
		if _, dup := seen[kf.Instant]; dup {
			return nil, errors.WrapErrorf(ErrDuplicateInstant, "instant %d", kf.Instant)
		}
		seen[kf.Instant] = struct{}{}
		sorted = append(sorted, Keyframe{Instant: kf.Instant, Color: kf.Color.Clone()})
	}

	slices.SortFunc(sorted, func(a, b Keyframe) int {
		return int(a.Instant) - int(b.Instant)
	})
	return &Schedule{items: sorted}, nil
}

// Len returns the number of keyframes.
func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the keyframes in ascending order.
func (s *Schedule) Items() []Keyframe {
	if s == nil {
		return []Keyframe{}
	}
	out := make([]Keyframe, len(s.items))
	for i, kf := range s.items {
		out[i] = Keyframe{Instant: kf.Instant, Color: kf.Color.Clone()}
	}
	return out
}

// Bracket returns the keyframes surrounding sec, a second of the day, such
// that prev.Instant <= sec < next.Instant modulo one day. Before the first
// or after the last keyframe the bracket spans midnight from the last to the
// first. A single keyframe is both prev and next.
func (s *Schedule) Bracket(sec uint32) (prev, next Keyframe, err error) {
	n := s.Len()
	if n == 0 {
		return Keyframe{}, Keyframe{}, ErrNoSchedule
	}
	sec %= SecondsPerDay

	// first keyframe strictly after sec
	i := sort.Search(n, func(i int) bool { return s.items[i].Instant > sec })
	if i == 0 || i == n {
		return s.items[n-1], s.items[0], nil
	}
	return s.items[i-1], s.items[i], nil
}

// ColorAt returns the schedule color at tod, the time elapsed since local
// midnight. The color interpolates continuously between bracketing
// keyframes over exactly the interval separating them.
func (s *Schedule) ColorAt(tod time.Duration) (Color, error) {
	dayMs := int64(SecondsPerDay * 1000)
	ms := tod.Milliseconds() % dayMs
	if ms < 0 {
		ms += dayMs
	}

	prev, next, err := s.Bracket(uint32(ms / 1000))
	if err != nil {
		return nil, err
	}

	start := int64(prev.Instant) * 1000
	span := int64(next.Instant)*1000 - start
	if span <= 0 {
		span += dayMs
	}
	elapsed := ms - start
	if elapsed < 0 {
		elapsed += dayMs
	}
	return Lerp(prev.Color, next.Color, elapsed, span), nil
}

// TimeOfDay returns the duration since local midnight of t in its location.
func TimeOfDay(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
}
