package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_StableOrder(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, 9)

	ids := make([]string, len(catalog))
	for i, a := range catalog {
		ids[i] = a.ID
	}

	assert.Equal(t, []string{
		"first_steps",
		"chef_apprentice",
		"clean_sweep",
		"scholar",
		"week_warrior",
		"month_master",
		"level_10",
		"level_25",
		"level_50",
	}, ids)
}

func TestCatalogByID(t *testing.T) {
	a, ok := CatalogByID("scholar")
	require.True(t, ok)
	assert.Equal(t, TriggerStudySessions, a.Trigger)
	assert.Equal(t, 50, a.Threshold)

	_, ok = CatalogByID("nonexistent")
	assert.False(t, ok)
}

func TestSatisfied_CounterTriggers(t *testing.T) {
	first, _ := CatalogByID("first_steps")
	chef, _ := CatalogByID("chef_apprentice")

	stats := Stats{TotalTasksCompleted: 1, MealsCooked: 9}
	state := NewState()

	assert.True(t, first.Satisfied(stats, state))
	assert.False(t, chef.Satisfied(stats, state))

	stats.MealsCooked = 10
	assert.True(t, chef.Satisfied(stats, state))
}

func TestSatisfied_StreakAndLevelTriggers(t *testing.T) {
	week, _ := CatalogByID("week_warrior")
	level10, _ := CatalogByID("level_10")

	state := NewState()
	stats := Stats{}

	assert.False(t, week.Satisfied(stats, state))
	state.Streak = 7
	assert.True(t, week.Satisfied(stats, state))

	assert.False(t, level10.Satisfied(stats, state))
	state.Level = 10
	assert.True(t, level10.Satisfied(stats, state))
}
