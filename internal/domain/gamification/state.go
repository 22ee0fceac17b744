package gamification

import (
	"fmt"
)

// State is the persisted progression aggregate: point balance within the
// current level, lifetime totals, streak fields, and the unlocked
// achievement set. One State exists per persistence namespace.
//
// Invariants, enforced by ApplyPoints:
//   - 0 <= Points < PointsPerLevel after every update
//   - Level >= 1 and never decreases
//   - LongestStreak >= Streak
type State struct {
	// Points is the balance within the current level.
	Points int `json:"points"`

	// TotalPoints is the lifetime point total.
	TotalPoints int `json:"total_points"`

	// Level is the current level, starting at 1.
	Level int `json:"level"`

	// Streak is the current run of consecutive active calendar days.
	Streak int `json:"streak"`

	// LongestStreak is the best run ever observed.
	LongestStreak int `json:"longest_streak"`

	// LastActive is the last active calendar day as a local "YYYY-MM-DD"
	// key, empty before the first activity.
	LastActive string `json:"last_active,omitempty"`

	// Unlocked holds the IDs of unlocked achievements. Membership matters;
	// order is insertion order and carries no meaning.
	Unlocked []string `json:"achievements"`
}

// NewState returns a fresh progression state: level 1, zero points, no
// streak, no achievements.
func NewState() *State {
	return &State{
		Level:    1,
		Unlocked: []string{},
	}
}

// ApplyPoints adds a point delta and rolls any overflow into the level.
// Partial progress carries into the new level. Negative deltas are allowed
// as adjustments: the balance and lifetime total floor at zero and the
// level never demotes. Returns true if the level increased.
func (s *State) ApplyPoints(delta, pointsPerLevel int) bool {
	if pointsPerLevel <= 0 {
		pointsPerLevel = DefaultConfig().PointsPerLevel
	}

	oldLevel := s.Level
	s.Points += delta
	s.TotalPoints += delta

	if s.Points < 0 {
		s.Points = 0
	}
	if s.TotalPoints < 0 {
		s.TotalPoints = 0
	}

	if s.Points >= pointsPerLevel {
		s.Level += s.Points / pointsPerLevel
		s.Points %= pointsPerLevel
	}

	return s.Level > oldLevel
}

// HasAchievement reports whether the achievement is already unlocked.
func (s *State) HasAchievement(id string) bool {
	for _, unlocked := range s.Unlocked {
		if unlocked == id {
			return true
		}
	}
	return false
}

// UnlockAchievement adds the achievement to the unlocked set. Returns false
// when it was already a member.
func (s *State) UnlockAchievement(id string) bool {
	if s.HasAchievement(id) {
		return false
	}
	s.Unlocked = append(s.Unlocked, id)
	return true
}

// RecordStreak sets the streak fields, keeping LongestStreak in sync.
func (s *State) RecordStreak(streak int, day string) {
	s.Streak = streak
	if streak > s.LongestStreak {
		s.LongestStreak = streak
	}
	s.LastActive = day
}

// Validate checks the aggregate invariants.
func (s *State) Validate(pointsPerLevel int) error {
	if s.Level < 1 {
		return fmt.Errorf("level must be >= 1, got %d", s.Level)
	}
	if s.Points < 0 || (pointsPerLevel > 0 && s.Points >= pointsPerLevel) {
		return fmt.Errorf("points %d out of range [0, %d)", s.Points, pointsPerLevel)
	}
	if s.Streak < 0 || s.LongestStreak < s.Streak {
		return fmt.Errorf("streak %d exceeds longest streak %d", s.Streak, s.LongestStreak)
	}
	return nil
}
