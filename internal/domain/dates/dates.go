// Package dates holds the single definition of calendar arithmetic
// shared by the recurrence manager and the streak computation, so both
// agree on what a "week" is.
package dates

import "time"

const secondsPerWeek = 7 * 24 * 60 * 60

// WeekIndex returns the epoch-anchored 7-day bucket a time falls in.
// Buckets are aligned to the Unix epoch in UTC, not to a Sunday or
// Monday week start. Consecutive indices are consecutive weeks.
// PRE: t is a valid time
// POST: Returns a monotonically increasing index, negative before 1970
func WeekIndex(t time.Time) int64 {
	secs := t.UTC().Unix()
	if secs < 0 {
		// Floor division so pre-epoch times still bucket correctly.
		return (secs - secondsPerWeek + 1) / secondsPerWeek
	}
	return secs / secondsPerWeek
}

// DateKey returns the date-only key for a time, YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WithClockFrom keeps the calendar date of base and overwrites only
// the hour, minute and second from clock. Used by series edits: moving
// the 6pm slot to 6:30pm shifts every future occurrence's clock time
// without shifting which day it falls on.
// PRE: base and clock are valid times
// POST: Returned time has base's date and clock's time of day, in
// base's location
func WithClockFrom(base, clock time.Time) time.Time {
	return time.Date(
		base.Year(), base.Month(), base.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		base.Location(),
	)
}

// SameWeek returns true if both times fall in the same epoch-anchored
// week bucket.
func SameWeek(a, b time.Time) bool {
	return WeekIndex(a) == WeekIndex(b)
}
