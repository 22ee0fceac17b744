package activity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(n int) Entry {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
	return Entry{
		Action:    fmt.Sprintf("action %d", n),
		Points:    n,
		Timestamp: ts,
		Date:      ts.Format("2006-01-02"),
	}
}

func TestLog_MostRecentFirst(t *testing.T) {
	log := NewLog()

	log.Record(entry(1))
	log.Record(entry(2))
	log.Record(entry(3))

	require.Equal(t, 3, log.Len())
	assert.Equal(t, "action 3", log.Entries[0].Action)
	assert.Equal(t, "action 1", log.Entries[2].Action)
}

func TestLog_CapDropsOldest(t *testing.T) {
	log := NewLog()

	for i := 1; i <= 150; i++ {
		log.Record(entry(i))
	}

	require.Equal(t, MaxEntries, log.Len())
	assert.Equal(t, "action 150", log.Entries[0].Action)
	assert.Equal(t, "action 51", log.Entries[MaxEntries-1].Action)
}

func TestLog_Recent(t *testing.T) {
	log := NewLog()
	for i := 1; i <= 10; i++ {
		log.Record(entry(i))
	}

	recent := log.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "action 10", recent[0].Action)

	assert.Len(t, log.Recent(100), 10)
	assert.Empty(t, log.Recent(0))
}

func TestLog_PointsOn(t *testing.T) {
	log := NewLog()
	log.Record(Entry{Action: "a", Points: 10, Date: "2026-03-01"})
	log.Record(Entry{Action: "b", Points: 5, Date: "2026-03-01"})
	log.Record(Entry{Action: "c", Points: 7, Date: "2026-03-02"})

	assert.Equal(t, 15, log.PointsOn("2026-03-01"))
	assert.Equal(t, 7, log.PointsOn("2026-03-02"))
	assert.Equal(t, 0, log.PointsOn("2026-03-03"))
}
