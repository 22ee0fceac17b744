// Package activity implements the bounded point-earning history: an ordered
// sequence of entries, most recent first, silently truncated past a cap.
package activity

import (
	"time"
)

// MaxEntries is the retention cap. Recording past it drops the oldest
// entries; truncation is retention policy, not an error.
const MaxEntries = 100

// Entry is one point-earning event.
type Entry struct {
	// Action is the human-readable reason the points were earned.
	Action string `json:"action"`

	// Points is the raw point delta, which may be negative.
	Points int `json:"points"`

	// Timestamp is when the entry was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Date is the local calendar day, for grouping in the history view.
	Date string `json:"date"`
}

// Log is the persisted history, most recent first.
type Log struct {
	Entries []Entry `json:"entries"`
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{Entries: []Entry{}}
}

// Record prepends an entry and truncates to MaxEntries.
func (l *Log) Record(entry Entry) {
	entries := make([]Entry, 0, len(l.Entries)+1)
	entries = append(entries, entry)
	entries = append(entries, l.Entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	l.Entries = entries
}

// Recent returns up to n entries, most recent first.
func (l *Log) Recent(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n > len(l.Entries) {
		n = len(l.Entries)
	}
	out := make([]Entry, n)
	copy(out, l.Entries[:n])
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.Entries)
}

// PointsOn sums the point deltas recorded on a calendar day.
func (l *Log) PointsOn(date string) int {
	total := 0
	for _, e := range l.Entries {
		if e.Date == date {
			total += e.Points
		}
	}
	return total
}
