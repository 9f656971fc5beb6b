package led

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayRamp(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule([]Keyframe{
		{Instant: 0, Color: Color{0}},
		{Instant: 43200, Color: Color{100}},
		{Instant: 86399, Color: Color{0}},
	}, 1)
	require.NoError(t, err)
	return s
}

func TestNewScheduleSortsAndCopies(t *testing.T) {
	items := []Keyframe{
		{Instant: 7200, Color: Color{2}},
		{Instant: 3600, Color: Color{1}},
	}
	s, err := NewSchedule(items, 1)
	require.NoError(t, err)

	items[0].Color[0] = 99
	got := s.Items()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(3600), got[0].Instant)
	assert.Equal(t, Color{2}, got[1].Color)
}

func TestNewScheduleRejects(t *testing.T) {
	tooMany := make([]Keyframe, SchedulerCapacity+1)
	for i := range tooMany {
		tooMany[i] = Keyframe{Instant: uint32(i * 60), Color: Color{0}}
	}
	full := tooMany[:SchedulerCapacity]

	tests := []struct {
		name  string
		items []Keyframe
		want  error
	}{
		{"49 keyframes", tooMany, ErrScheduleTooLarge},
		{"duplicate instant", []Keyframe{{Instant: 5, Color: Color{1}}, {Instant: 5, Color: Color{2}}}, ErrDuplicateInstant},
		{"instant past midnight", []Keyframe{{Instant: SecondsPerDay, Color: Color{1}}}, ErrInvalidArgument},
		{"wrong channel count", []Keyframe{{Instant: 1, Color: Color{1, 2}}}, ErrInvalidArgument},
		{"power out of range", []Keyframe{{Instant: 1, Color: Color{101}}}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(tt.items, 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewSchedule(full, 1)
	assert.NoError(t, err, "exactly %d keyframes is allowed", SchedulerCapacity)
}

func TestBracketEmpty(t *testing.T) {
	s, err := NewSchedule(nil, 1)
	require.NoError(t, err)
	_, _, err = s.Bracket(100)
	assert.ErrorIs(t, err, ErrNoSchedule)

	var nilSchedule *Schedule
	_, err = nilSchedule.ColorAt(time.Hour)
	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestBracketSingleKeyframe(t *testing.T) {
	s, err := NewSchedule([]Keyframe{{Instant: 3600, Color: Color{42}}}, 1)
	require.NoError(t, err)

	for _, sec := range []uint32{0, 3599, 3600, 86399} {
		prev, next, err := s.Bracket(sec)
		require.NoError(t, err)
		assert.Equal(t, uint32(3600), prev.Instant)
		assert.Equal(t, uint32(3600), next.Instant)
	}

	c, err := s.ColorAt(20 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Color{42}, c)
}

func TestBracketWrapsAcrossMidnight(t *testing.T) {
	s, err := NewSchedule([]Keyframe{
		{Instant: 28800, Color: Color{0}},
		{Instant: 72000, Color: Color{0}},
	}, 1)
	require.NoError(t, err)

	tests := []struct {
		sec        uint32
		prev, next uint32
	}{
		{0, 72000, 28800},
		{28799, 72000, 28800},
		{28800, 28800, 72000},
		{50000, 28800, 72000},
		{72000, 72000, 28800},
		{86399, 72000, 28800},
	}
	for _, tt := range tests {
		prev, next, err := s.Bracket(tt.sec)
		require.NoError(t, err)
		assert.Equal(t, tt.prev, prev.Instant, "prev at %d", tt.sec)
		assert.Equal(t, tt.next, next.Instant, "next at %d", tt.sec)
	}
}

// For every valid keyframe set and every second of the day, the bracket
// satisfies prev <= t < next modulo one day.
func TestBracketPropertyRandomSchedules(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 20; round++ {
		n := 1 + rng.Intn(SchedulerCapacity)
		seen := map[uint32]bool{}
		var items []Keyframe
		for len(items) < n {
			inst := uint32(rng.Intn(SecondsPerDay))
			if seen[inst] {
				continue
			}
			seen[inst] = true
			items = append(items, Keyframe{Instant: inst, Color: Color{uint8(rng.Intn(101))}})
		}
		s, err := NewSchedule(items, 1)
		require.NoError(t, err)

		t.Run(fmt.Sprintf("round%d_n%d", round, n), func(t *testing.T) {
			for sec := uint32(0); sec < SecondsPerDay; sec += 7 {
				prev, next, err := s.Bracket(sec)
				require.NoError(t, err)

				// offsets measured forward from prev
				toT := (sec + SecondsPerDay - prev.Instant) % SecondsPerDay
				toNext := (next.Instant + SecondsPerDay - prev.Instant) % SecondsPerDay
				if n == 1 {
					assert.Equal(t, prev, next)
					continue
				}
				if toT >= toNext {
					t.Fatalf("sec %d: bracket (%d, %d) does not contain t", sec, prev.Instant, next.Instant)
				}
			}
		})
	}
}

func TestColorAtDayRampScenario(t *testing.T) {
	s := dayRamp(t)

	morning, err := s.ColorAt(6 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Color{50}, morning)

	noon, err := s.ColorAt(12 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Color{100}, noon)

	// the evening segment 43200 -> 86399 strictly decreases at coarse steps
	prev := uint8(101)
	for h := 13; h <= 23; h++ {
		c, err := s.ColorAt(time.Duration(h) * time.Hour)
		require.NoError(t, err)
		assert.Less(t, c[0], prev, "hour %d", h)
		prev = c[0]
	}

	evening, err := s.ColorAt(18 * time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 50, int(evening[0]), 1)
}

func TestColorAtWrapSegment(t *testing.T) {
	s, err := NewSchedule([]Keyframe{
		{Instant: 79200, Color: Color{100}}, // 22:00
		{Instant: 7200, Color: Color{0}},    // 02:00
	}, 1)
	require.NoError(t, err)

	c, err := s.ColorAt(0)
	require.NoError(t, err)
	assert.Equal(t, Color{50}, c)

	c, err = s.ColorAt(23 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Color{75}, c)

	c, err = s.ColorAt(1 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Color{25}, c)
}

func TestRejectedScheduleKeepsPrevious(t *testing.T) {
	s := dayRamp(t)
	before, _, _ := s.Bracket(21600)

	tooMany := make([]Keyframe, 49)
	for i := range tooMany {
		tooMany[i] = Keyframe{Instant: uint32(i), Color: Color{0}}
	}
	replacement, err := NewSchedule(tooMany, 1)
	assert.ErrorIs(t, err, ErrScheduleTooLarge)
	assert.Nil(t, replacement)

	after, _, _ := s.Bracket(21600)
	assert.Equal(t, before, after)
	assert.Equal(t, 3, s.Len())
}

func TestTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	ts := time.Date(2026, 1, 1, 23, 30, 15, 5e8, time.UTC)
	assert.Equal(t, 23*time.Hour+30*time.Minute+15500*time.Millisecond, TimeOfDay(ts))
	assert.Equal(t, 9*time.Hour+30*time.Minute+15500*time.Millisecond, TimeOfDay(ts.In(loc)))
}
