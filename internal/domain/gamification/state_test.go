package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewState_Defaults(t *testing.T) {
	s := NewState()

	assert.Equal(t, 0, s.Points)
	assert.Equal(t, 0, s.TotalPoints)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 0, s.Streak)
	assert.Empty(t, s.Unlocked)
	assert.NoError(t, s.Validate(100))
}

func TestApplyPoints_LevelRollover(t *testing.T) {
	s := NewState()

	leveled := s.ApplyPoints(250, 100)

	assert.True(t, leveled)
	assert.Equal(t, 3, s.Level)
	assert.Equal(t, 50, s.Points)
	assert.Equal(t, 250, s.TotalPoints)
}

func TestApplyPoints_NoLevelUpBelowThreshold(t *testing.T) {
	s := NewState()

	leveled := s.ApplyPoints(99, 100)

	assert.False(t, leveled)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 99, s.Points)
}

func TestApplyPoints_ExactThreshold(t *testing.T) {
	s := NewState()

	leveled := s.ApplyPoints(100, 100)

	assert.True(t, leveled)
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, 0, s.Points)
}

func TestApplyPoints_LevelNeverDecreases(t *testing.T) {
	s := NewState()
	s.ApplyPoints(250, 100)
	level := s.Level

	s.ApplyPoints(-1000, 100)

	assert.Equal(t, level, s.Level)
	assert.Equal(t, 0, s.Points)
	assert.Equal(t, 0, s.TotalPoints)
}

func TestApplyPoints_AccumulatedAwardsKeepInvariant(t *testing.T) {
	s := NewState()

	for i := 0; i < 40; i++ {
		before := s.Level
		s.ApplyPoints(15, 100)
		assert.GreaterOrEqual(t, s.Level, before)
		assert.Less(t, s.Points, 100)
		assert.GreaterOrEqual(t, s.Points, 0)
	}

	// 40 awards of 15 points.
	assert.Equal(t, 600, s.TotalPoints)
	assert.Equal(t, 7, s.Level)
	assert.Equal(t, 0, s.Points)
}

func TestUnlockAchievement_GuardsMembership(t *testing.T) {
	s := NewState()

	assert.True(t, s.UnlockAchievement("first_steps"))
	assert.False(t, s.UnlockAchievement("first_steps"))
	assert.True(t, s.HasAchievement("first_steps"))
	assert.Len(t, s.Unlocked, 1)
}

func TestRecordStreak_TracksLongest(t *testing.T) {
	s := NewState()

	s.RecordStreak(5, "2026-03-01")
	assert.Equal(t, 5, s.Streak)
	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, "2026-03-01", s.LastActive)

	s.RecordStreak(1, "2026-03-10")
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 5, s.LongestStreak)
}

func TestCalculateLevel(t *testing.T) {
	assert.Equal(t, 1, CalculateLevel(0, 100))
	assert.Equal(t, 1, CalculateLevel(99, 100))
	assert.Equal(t, 2, CalculateLevel(100, 100))
	assert.Equal(t, 3, CalculateLevel(250, 100))
	assert.Equal(t, 11, CalculateLevel(1000, 100))
}
