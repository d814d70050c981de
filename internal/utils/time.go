package utils

import "time"

// CombineDateAndClock merges the calendar date of d with the time-of-day of
// clock, in clock's location. Entries logged against a past date still sort
// by actual completion time within that day.
func CombineDateAndClock(d, clock time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(),
		clock.Location())
}

// ToMillis converts a time to epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
