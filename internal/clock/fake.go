package clock

import "time"

// FakeClock is a manually advanced Clock for tests. Time stands still
// until Advance moves it, so a scheduler tick or a lookback window can be
// pinned to an exact month.
type FakeClock struct {
	now time.Time
}

// NewFakeClock starts the clock at t, normalized to UTC like the system
// clock.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time { return c.now }

// Advance moves the clock by d. Negative durations move it backwards,
// which tests use to cross a year boundary.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
