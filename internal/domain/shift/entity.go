package shift

import (
	"fmt"
	"time"
)

// ClockLayout is the wall-clock format shifts are stored in.
const ClockLayout = "15:04"

const (
	MinFlexibleMinutes = 0
	MaxFlexibleMinutes = 120
	minutesPerDay      = 24 * 60
)

type WorkShift struct {
	ID              string
	GroupID         string
	Name            string
	StartTime       string // HH:MM
	EndTime         string // HH:MM
	FlexibleMinutes *int
	BreakTimes      []BreakTime
	CrossDay        bool // EndTime falls on the following day
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BreakTime struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// StartMinute returns the shift start as minutes since midnight.
func (s WorkShift) StartMinute() (int, error) {
	return ParseClock(s.StartTime)
}

// EndMinute returns the shift end as minutes since midnight.
func (s WorkShift) EndMinute() (int, error) {
	return ParseClock(s.EndTime)
}

// Flex returns the configured flexible minutes, 0 when unset.
func (s WorkShift) Flex() int {
	if s.FlexibleMinutes == nil {
		return 0
	}
	return *s.FlexibleMinutes
}

// Contains reports whether the HH:MM clock lies inside the shift window.
// Both ends are inclusive. Cross-day windows wrap midnight.
func (s WorkShift) Contains(clock string) bool {
	if s.CrossDay {
		return clock >= s.StartTime || clock <= s.EndTime
	}
	return clock >= s.StartTime && clock <= s.EndTime
}

// DurationMinutes is the scheduled length of the shift, breaks included.
func (s WorkShift) DurationMinutes() (int, error) {
	start, err := s.StartMinute()
	if err != nil {
		return 0, err
	}
	end, err := s.EndMinute()
	if err != nil {
		return 0, err
	}
	if s.CrossDay {
		return minutesPerDay - start + end, nil
	}
	return end - start, nil
}

// Touched returns a copy of s with UpdatedAt set to now.
func (s WorkShift) Touched(now time.Time) WorkShift {
	s.UpdatedAt = now
	return s
}

// Deactivated returns an inactive copy of s.
func (s WorkShift) Deactivated(now time.Time) WorkShift {
	s.IsActive = false
	return s.Touched(now)
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	if len(clock) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockOf formats the wall-clock part of t as HH:MM.
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// MinuteOfDay returns the hour:minute of t as minutes since midnight.
// Seconds are ignored.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// MinutesAfter returns max(0, later-earlier) for minute-of-day values.
func MinutesAfter(later, earlier int) int {
	if diff := later - earlier; diff > 0 {
		return diff
	}
	return 0
}

// CircularDistance is the shortest distance between two minute-of-day
// values on the 24h clock.
func CircularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > minutesPerDay/2 {
		d = minutesPerDay - d
	}
	return d
}

// WithinFlexWindow reports whether clock minute m lies in
// [start-flex, start+flex], wrapping midnight.
func WithinFlexWindow(m, start, flex int) bool {
	return CircularDistance(m, start) <= flex
}

type span struct{ from, to int }

// spans splits the shift window into half-open same-day intervals.
func spans(start, end int, crossDay bool) []span {
	if crossDay {
		return []span{{start, minutesPerDay}, {0, end}}
	}
	return []span{{start, end}}
}

// WindowsOverlap reports whether two shift windows share any minute.
// Back-to-back shifts (one ends when the next starts) do not overlap.
func WindowsOverlap(aStart, aEnd string, aCross bool, bStart, bEnd string, bCross bool) (bool, error) {
	as, err := ParseClock(aStart)
	if err != nil {
		return false, err
	}
	ae, err := ParseClock(aEnd)
	if err != nil {
		return false, err
	}
	bs, err := ParseClock(bStart)
	if err != nil {
		return false, err
	}
	be, err := ParseClock(bEnd)
	if err != nil {
		return false, err
	}
	for _, x := range spans(as, ae, aCross) {
		for _, y := range spans(bs, be, bCross) {
			if x.from < y.to && y.from < x.to {
				return true, nil
			}
		}
	}
	return false, nil
}
