// Package timeutil holds the clocks and calendar-day helpers JobQuest runs on.
// Streaks and daily missions are judged by the user's local calendar day, so
// every helper takes the location explicitly instead of reading time.Local.
package timeutil

import (
	"sync"
	"time"
)

// Day is the length of one follow-up day. Follow-up scheduling is instant based,
// so this is a plain 24 hour duration and ignores DST transitions.
const Day = 24 * time.Hour

// Clock supplies the current instant. Commands take their "now" from a Clock so
// tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. Use Set/Advance in tests.
// It is safe to move the clock while another goroutine reads it.
type FixedClock struct {
	T  time.Time
	mu sync.RWMutex
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.T
}

// Set pins the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.T = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.T = c.T.Add(d)
	c.mu.Unlock()
}

// LoadLocation resolves an IANA zone name. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// StartOfDay returns local midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// IsSameDay checks if two times fall on the same calendar day in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	a1, a2 := t1.In(loc), t2.In(loc)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// IsConsecutiveDay checks if t2 falls on the calendar day right after t1.
func IsConsecutiveDay(t1, t2 time.Time, loc *time.Location) bool {
	next := StartOfDay(t1, loc).AddDate(0, 0, 1)
	return IsSameDay(next, t2, loc)
}

// DaysBetween returns the absolute number of calendar days between two times in loc.
// Midnight-to-midnight spans are rounded so DST days still count as one.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	a1 := StartOfDay(t1, loc)
	a2 := StartOfDay(t2, loc)
	hours := a2.Sub(a1).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int((hours + 12) / 24)
}

// AddDays adds n follow-up days to t.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * Day)
}

// FormatDate is the YYYY-MM-DD layout used for day keys.
const FormatDate = "2006-01-02"

// DateKey formats t as the calendar date string used for mission reset bookkeeping.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(FormatDate)
}
