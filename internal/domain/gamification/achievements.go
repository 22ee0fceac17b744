package gamification

// TriggerType classifies what cumulative stat an achievement watches.
type TriggerType string

const (
	TriggerTasksCompleted TriggerType = "tasks_completed"
	TriggerMealsCooked    TriggerType = "meals_cooked"
	TriggerCleaningTasks  TriggerType = "cleaning_tasks"
	TriggerStudySessions  TriggerType = "study_sessions"
	TriggerStreak         TriggerType = "streak"
	TriggerLevel          TriggerType = "level"
)

// Achievement is an immutable catalog entry. Only membership in the
// unlocked set changes at runtime.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Trigger     TriggerType
	Threshold   int
}

// Stats are the aggregate per-category counters maintained by the task
// modules, read purely for achievement evaluation.
type Stats struct {
	TotalTasksCompleted int
	MealsCooked         int
	CleaningTasks       int
	StudySessions       int
}

// Satisfied evaluates the achievement's predicate against the current
// stats and progression state.
func (a Achievement) Satisfied(stats Stats, state *State) bool {
	switch a.Trigger {
	case TriggerTasksCompleted:
		return stats.TotalTasksCompleted >= a.Threshold
	case TriggerMealsCooked:
		return stats.MealsCooked >= a.Threshold
	case TriggerCleaningTasks:
		return stats.CleaningTasks >= a.Threshold
	case TriggerStudySessions:
		return stats.StudySessions >= a.Threshold
	case TriggerStreak:
		return state.Streak >= a.Threshold
	case TriggerLevel:
		return state.Level >= a.Threshold
	default:
		return false
	}
}

// Catalog returns the static achievement definitions in declaration order.
// Sweeps evaluate and unlock in exactly this order.
func Catalog() []Achievement {
	return []Achievement{
		{"first_steps", "First Steps", "Complete your first task", "👣", TriggerTasksCompleted, 1},
		{"chef_apprentice", "Chef Apprentice", "Cook 10 meals", "👨‍🍳", TriggerMealsCooked, 10},
		{"clean_sweep", "Clean Sweep", "Complete 25 cleaning tasks", "✨", TriggerCleaningTasks, 25},
		{"scholar", "Scholar", "Complete 50 study sessions", "🎓", TriggerStudySessions, 50},
		{"week_warrior", "Week Warrior", "Maintain a 7-day streak", "⚔️", TriggerStreak, 7},
		{"month_master", "Month Master", "Maintain a 30-day streak", "👑", TriggerStreak, 30},
		{"level_10", "Rising Star", "Reach level 10", "⭐", TriggerLevel, 10},
		{"level_25", "Super Student", "Reach level 25", "🌟", TriggerLevel, 25},
		{"level_50", "Legend", "Reach level 50", "💫", TriggerLevel, 50},
	}
}

// CatalogByID returns the catalog entry for an ID.
func CatalogByID(id string) (Achievement, bool) {
	for _, a := range Catalog() {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
