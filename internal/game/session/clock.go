package session

import (
	"fmt"
	"time"
)

// TimePeriod is a named phase of the game day.
type TimePeriod string

const (
	PeriodNight TimePeriod = "Night"
	PeriodDawn  TimePeriod = "Dawn"
	PeriodDay   TimePeriod = "Day"
	PeriodDusk  TimePeriod = "Dusk"
)

// GameHour is a game-clock hour in [0, 23].
type GameHour int

// Period returns the named time period for this hour.
//
// Precondition: h is in [0, 23].
func (h GameHour) Period() TimePeriod {
	switch {
	case h >= 5 && h <= 6:
		return PeriodDawn
	case h >= 7 && h <= 17:
		return PeriodDay
	case h >= 18 && h <= 19:
		return PeriodDusk
	default:
		return PeriodNight
	}
}

// String returns the hour in "HH:00" format.
func (h GameHour) String() string {
	return fmt.Sprintf("%02d:00", int(h))
}

// Clock tracks elapsed game time. It only moves when Advance is called,
// so game time is independent of wall-clock time.
type Clock struct {
	now        time.Duration
	hourLength time.Duration
	startHour  int
}

// NewClock creates a Clock at zero elapsed time showing startHour.
//
// Precondition: hourLength > 0; startHour in [0, 23].
func NewClock(startHour int, hourLength time.Duration) *Clock {
	if hourLength <= 0 {
		panic("session.NewClock: hourLength must be > 0")
	}
	return &Clock{hourLength: hourLength, startHour: ((startHour % 24) + 24) % 24}
}

// Now returns the elapsed game time.
func (c *Clock) Now() time.Duration { return c.now }

// Advance moves the clock forward by dt and reports whether an hour
// boundary was crossed, including a whole day that lands on the same hour.
//
// Precondition: dt >= 0.
func (c *Clock) Advance(dt time.Duration) bool {
	if dt < 0 {
		panic("session.Clock.Advance: negative dt: precondition violated")
	}
	before := c.now / c.hourLength
	c.now += dt
	return c.now/c.hourLength != before
}

// Set moves the clock to an absolute elapsed time.
func (c *Clock) Set(now time.Duration) { c.now = now }

// Hour returns the current game hour.
func (c *Clock) Hour() GameHour {
	return GameHour((c.startHour + int(c.now/c.hourLength)) % 24)
}
