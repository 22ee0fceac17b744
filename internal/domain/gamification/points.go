// Package gamification contains the progression domain model: points,
// levels, streaks, and the achievement catalog. This is the core of the
// business logic - there are no external dependencies here.
package gamification

// Category identifies a point-earning task category. The task modules
// (meals, study, cleaning, budget, DIY) maintain per-category completion
// counters; the progression engine reads them for achievement evaluation.
type Category string

const (
	CategoryStudy    Category = "study"
	CategoryMeal     Category = "meal"
	CategoryCleaning Category = "cleaning"
	CategoryExpense  Category = "expense"
	CategoryDIY      Category = "diy"
)

// IsValid checks that the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStudy, CategoryMeal, CategoryCleaning, CategoryExpense, CategoryDIY:
		return true
	default:
		return false
	}
}

// Config holds the point economy. All values are fixed constants in the
// reference behavior; they are grouped here so an install can tune them.
type Config struct {
	// PointsPerLevel is the level-up threshold.
	PointsPerLevel int

	// Task completion points per category.
	StudySession int
	CookMeal     int
	CleanTask    int
	LogExpense   int
	DIYTask      int

	// Daily goals.
	DailyLogin       int
	AllTasksComplete int

	// Streak milestone bonuses and the streak lengths that trigger them.
	WeekStreakBonus  int
	MonthStreakBonus int
	WeekMilestone    int
	MonthMilestone   int

	// AchievementBonus is awarded once per achievement unlock.
	AchievementBonus int
}

// DefaultConfig returns the reference point economy.
func DefaultConfig() Config {
	return Config{
		PointsPerLevel:   100,
		StudySession:     15,
		CookMeal:         10,
		CleanTask:        5,
		LogExpense:       3,
		DIYTask:          8,
		DailyLogin:       5,
		AllTasksComplete: 25,
		WeekStreakBonus:  50,
		MonthStreakBonus: 200,
		WeekMilestone:    7,
		MonthMilestone:   30,
		AchievementBonus: 50,
	}
}

// CategoryPoints returns the completion award for a category.
func (c Config) CategoryPoints(cat Category) (int, bool) {
	switch cat {
	case CategoryStudy:
		return c.StudySession, true
	case CategoryMeal:
		return c.CookMeal, true
	case CategoryCleaning:
		return c.CleanTask, true
	case CategoryExpense:
		return c.LogExpense, true
	case CategoryDIY:
		return c.DIYTask, true
	default:
		return 0, false
	}
}

// CalculateLevel computes a level from a point total: one level per
// PointsPerLevel points, starting at level 1.
func CalculateLevel(points, pointsPerLevel int) int {
	if pointsPerLevel <= 0 || points < 0 {
		return 1
	}
	return points/pointsPerLevel + 1
}
