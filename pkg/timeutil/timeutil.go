// Package timeutil provides calendar-day helpers for streak tracking.
// Dates are compared as local-clock "YYYY-MM-DD" strings, matching how the
// app decides whether two activities happened on the same day.
package timeutil

import (
	"time"
)

// DateLayout is the calendar-day format used for streak comparisons.
const DateLayout = "2006-01-02"

// DateKey returns the calendar-day key for a time, in that time's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the calendar-day key for the current local day.
func Today() string {
	return DateKey(time.Now())
}

// Yesterday returns the calendar-day key for the day before t.
func Yesterday(t time.Time) string {
	return DateKey(t.AddDate(0, 0, -1))
}

// SameDay reports whether two times fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from a to b.
// Returns a negative value when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// ParseDateKey parses a "YYYY-MM-DD" key in the local location.
// The zero time is returned for empty or malformed keys.
func ParseDateKey(key string) time.Time {
	if key == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
