// Package application wires the domain model to persistence and the event
// bus: the progression engine and the session manager live here.
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/student-life-hub/student-life-hub/internal/domain/activity"
	"github.com/student-life-hub/student-life-hub/internal/domain/gamification"
	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/persistence"
	"github.com/student-life-hub/student-life-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION ENGINE
// Point accrual, level-ups, streaks, and achievement evaluation. The store
// is the single source of truth: every operation loads state, mutates a
// working copy, and persists before reporting success, so a persistence
// failure leaves durable state unchanged.
// ══════════════════════════════════════════════════════════════════════════════

// Engine is the progression engine.
type Engine struct {
	store  persistence.Store
	bus    shared.EventPublisher
	points gamification.Config
	logger *slog.Logger
	now    func() time.Time
}

// EngineConfig configures the progression engine.
type EngineConfig struct {
	// Store is the persistence backend (required).
	Store persistence.Store

	// Bus receives domain events (required).
	Bus shared.EventPublisher

	// Points overrides the point economy (zero value: reference defaults).
	Points gamification.Config

	// Logger for structured logging.
	Logger *slog.Logger

	// Now overrides the clock, for calendar-sensitive tests.
	Now func() time.Time
}

// NewEngine creates a progression engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("engine: event bus is required")
	}
	if cfg.Points.PointsPerLevel <= 0 {
		cfg.Points = gamification.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		store:  cfg.Store,
		bus:    cfg.Bus,
		points: cfg.Points,
		logger: cfg.Logger,
		now:    cfg.Now,
	}, nil
}

// AwardResult reflects the fully persisted post-award state.
type AwardResult struct {
	Points      int
	TotalPoints int
	Level       int
	LeveledUp   bool
}

// AwardPoints adds a point delta, rolls overflow into the level, persists,
// records the activity entry, sweeps achievements, and emits events.
//
// The delta may be negative (adjustment); the balance floors at zero and
// the level never demotes. Achievement and streak-milestone bonuses
// re-enter this method; the recursion terminates because each bonus is
// granted at most once per threshold crossing.
func (e *Engine) AwardPoints(ctx context.Context, points int, reason string) (AwardResult, error) {
	state, err := e.loadState(ctx)
	if err != nil {
		return AwardResult{}, err
	}

	oldLevel := state.Level
	leveledUp := state.ApplyPoints(points, e.points.PointsPerLevel)

	if err := e.store.Set(ctx, persistence.KeyProgression, state); err != nil {
		e.logger.Error("failed to persist progression state", "reason", reason, "error", err)
		return AwardResult{}, shared.WrapError("gamification", "AwardPoints", shared.ErrStorageUnavailable, "persist state", err)
	}

	e.recordActivity(ctx, reason, points)

	if _, err := e.CheckAchievements(ctx); err != nil {
		// Award itself is durable; a failed sweep re-runs on the next one.
		e.logger.Error("achievement sweep failed", "error", err)
	}

	// Reload: the sweep may have awarded bonuses on top of this award.
	final, err := e.loadState(ctx)
	if err != nil {
		return AwardResult{}, err
	}

	e.publish(shared.NewPointsAwardedEvent(points, reason, final.Level, final.TotalPoints))
	if leveledUp {
		e.publish(shared.NewLevelUpEvent(oldLevel, state.Level))
	}

	e.logger.Debug("points awarded",
		"points", points,
		"reason", reason,
		"level", final.Level,
	)

	return AwardResult{
		Points:      final.Points,
		TotalPoints: final.TotalPoints,
		Level:       final.Level,
		LeveledUp:   leveledUp,
	}, nil
}

// StreakResult reports the streak after an update.
type StreakResult struct {
	Streak        int
	LongestStreak int

	// Continued is false when the streak was already counted today.
	Continued bool
}

// UpdateStreak advances the daily streak state machine. It is triggered
// externally, once per session or day, by whatever detects app activation;
// the engine never schedules it.
//
// Branches, on local calendar days:
//   - already active today: no mutation
//   - last active yesterday: streak continues; hitting a milestone length
//     (7, 30) grants that milestone's one-time bonus
//   - anything else, including first ever: streak resets to 1
//
// Mutating branches always grant the flat daily-login bonus. Bonuses are
// awarded before the streak fields are persisted, so achievement sweeps
// triggered by the bonus awards evaluate against the pre-update streak; a
// single call at a 7-day boundary therefore records exactly two activity
// entries (daily login and milestone).
func (e *Engine) UpdateStreak(ctx context.Context) (StreakResult, error) {
	state, err := e.loadState(ctx)
	if err != nil {
		return StreakResult{}, err
	}

	now := e.now()
	today := timeutil.DateKey(now)

	if state.LastActive == today {
		return StreakResult{
			Streak:        state.Streak,
			LongestStreak: state.LongestStreak,
			Continued:     false,
		}, nil
	}

	newStreak := 1
	milestoneBonus := 0
	milestoneReason := ""
	if state.LastActive == timeutil.Yesterday(now) {
		newStreak = state.Streak + 1
		switch newStreak {
		case e.points.WeekMilestone:
			milestoneBonus = e.points.WeekStreakBonus
			milestoneReason = "Week streak milestone! 🔥"
		case e.points.MonthMilestone:
			milestoneBonus = e.points.MonthStreakBonus
			milestoneReason = "Month streak milestone! 👑"
		}
	}

	if milestoneBonus > 0 {
		if _, err := e.AwardPoints(ctx, milestoneBonus, milestoneReason); err != nil {
			return StreakResult{}, err
		}
	}
	if _, err := e.AwardPoints(ctx, e.points.DailyLogin, "Daily login"); err != nil {
		return StreakResult{}, err
	}

	// The bonus awards rewrote the points fields; reload before touching
	// the streak fields so the awards are not clobbered.
	state, err = e.loadState(ctx)
	if err != nil {
		return StreakResult{}, err
	}
	state.RecordStreak(newStreak, today)

	if err := e.store.Set(ctx, persistence.KeyProgression, state); err != nil {
		e.logger.Error("failed to persist streak", "error", err)
		return StreakResult{}, shared.WrapError("gamification", "UpdateStreak", shared.ErrStorageUnavailable, "persist state", err)
	}

	e.publish(shared.NewStreakUpdatedEvent(state.Streak, state.LongestStreak, true))

	e.logger.Info("streak updated",
		"streak", state.Streak,
		"longest", state.LongestStreak,
	)

	return StreakResult{
		Streak:        state.Streak,
		LongestStreak: state.LongestStreak,
		Continued:     true,
	}, nil
}

// CheckAchievements runs a full sweep of the catalog, in declaration order,
// against current stats and state. Each newly satisfied achievement is
// unlocked, emits its notification, and grants the fixed bonus. Repeated
// sweeps are idempotent: the persisted unlocked set guards re-unlocks.
func (e *Engine) CheckAchievements(ctx context.Context) ([]gamification.Achievement, error) {
	stats, err := e.loadStats(ctx)
	if err != nil {
		return nil, err
	}

	var unlocked []gamification.Achievement
	for _, a := range gamification.Catalog() {
		// Reload per entry: a bonus award below recurses into a nested
		// sweep that may have unlocked a later catalog entry already.
		state, err := e.loadState(ctx)
		if err != nil {
			return unlocked, err
		}
		if state.HasAchievement(a.ID) || !a.Satisfied(stats, state) {
			continue
		}
		if err := e.unlockAchievement(ctx, a); err != nil {
			return unlocked, err
		}
		unlocked = append(unlocked, a)
	}
	return unlocked, nil
}

// unlockAchievement appends the membership, persists it, emits the
// notification, and grants the bonus. The membership guard lives in
// CheckAchievements; persisting the set before the bonus award is what
// makes the recursive sweep terminate.
func (e *Engine) unlockAchievement(ctx context.Context, a gamification.Achievement) error {
	state, err := e.loadState(ctx)
	if err != nil {
		return err
	}

	state.Unlocked = append(state.Unlocked, a.ID)
	if err := e.store.Set(ctx, persistence.KeyProgression, state); err != nil {
		return shared.WrapError("gamification", "Unlock", shared.ErrStorageUnavailable, "persist unlock "+a.ID, err)
	}

	e.publish(shared.NewAchievementUnlockedEvent(a.ID, a.Name, a.Description, a.Icon))
	e.logger.Info("achievement unlocked", "achievement", a.ID)

	_, err = e.AwardPoints(ctx, e.points.AchievementBonus, "Achievement unlocked: "+a.Name)
	return err
}

// TaskResult reports a category task completion.
type TaskResult struct {
	Category      gamification.Category
	CategoryCount int
	TotalTasks    int
	Award         AwardResult
}

// CompleteTask records a completed task for a category: bumps the total and
// per-category counters, emits the task event, and awards the category's
// points (which runs the achievement sweep against the fresh counters).
func (e *Engine) CompleteTask(ctx context.Context, cat gamification.Category) (TaskResult, error) {
	points, ok := e.points.CategoryPoints(cat)
	if !ok {
		return TaskResult{}, shared.ErrUnknownCategory
	}

	total, err := e.incrementCounter(ctx, persistence.KeyTotalTasksCompleted)
	if err != nil {
		return TaskResult{}, err
	}

	count, err := e.incrementCounter(ctx, categoryCounterKey(cat))
	if err != nil {
		return TaskResult{}, err
	}

	e.publish(shared.NewTaskCompletedEvent(string(cat), count, points))

	award, err := e.AwardPoints(ctx, points, taskReason(cat))
	if err != nil {
		return TaskResult{}, err
	}

	return TaskResult{
		Category:      cat,
		CategoryCount: count,
		TotalTasks:    total,
		Award:         award,
	}, nil
}

// State returns the current progression state (defaults when none exists).
func (e *Engine) State(ctx context.Context) (*gamification.State, error) {
	return e.loadState(ctx)
}

// Stats returns the aggregate per-category counters.
func (e *Engine) Stats(ctx context.Context) (gamification.Stats, error) {
	return e.loadStats(ctx)
}

// RecentActivity returns up to n history entries, most recent first.
func (e *Engine) RecentActivity(ctx context.Context, n int) ([]activity.Entry, error) {
	log, err := e.loadActivityLog(ctx)
	if err != nil {
		return nil, err
	}
	return log.Recent(n), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// internals
// ─────────────────────────────────────────────────────────────────────────────

func (e *Engine) loadState(ctx context.Context) (*gamification.State, error) {
	state := gamification.NewState()
	if _, err := persistence.Load(ctx, e.store, persistence.KeyProgression, state); err != nil {
		return nil, shared.WrapError("gamification", "Load", shared.ErrStorageUnavailable, "load state", err)
	}
	return state, nil
}

func (e *Engine) loadStats(ctx context.Context) (gamification.Stats, error) {
	var stats gamification.Stats
	var err error

	if stats.TotalTasksCompleted, err = persistence.LoadInt(ctx, e.store, persistence.KeyTotalTasksCompleted, 0); err != nil {
		return stats, err
	}
	if stats.MealsCooked, err = persistence.LoadInt(ctx, e.store, persistence.KeyMealsCooked, 0); err != nil {
		return stats, err
	}
	if stats.CleaningTasks, err = persistence.LoadInt(ctx, e.store, persistence.KeyCleaningTasks, 0); err != nil {
		return stats, err
	}
	if stats.StudySessions, err = persistence.LoadInt(ctx, e.store, persistence.KeyStudySessions, 0); err != nil {
		return stats, err
	}
	return stats, nil
}

func (e *Engine) loadActivityLog(ctx context.Context) (*activity.Log, error) {
	log := activity.NewLog()
	if _, err := persistence.Load(ctx, e.store, persistence.KeyActivityLog, log); err != nil {
		return nil, shared.WrapError("gamification", "Load", shared.ErrStorageUnavailable, "load activity log", err)
	}
	return log, nil
}

// recordActivity appends a history entry. A failure here is logged and
// swallowed: the award is already durable and history is best-effort.
func (e *Engine) recordActivity(ctx context.Context, reason string, points int) {
	log, err := e.loadActivityLog(ctx)
	if err != nil {
		e.logger.Error("failed to load activity log", "error", err)
		return
	}

	now := e.now()
	log.Record(activity.Entry{
		Action:    reason,
		Points:    points,
		Timestamp: now,
		Date:      timeutil.DateKey(now),
	})

	if err := e.store.Set(ctx, persistence.KeyActivityLog, log); err != nil {
		e.logger.Error("failed to persist activity log", "error", err)
	}
}

func (e *Engine) incrementCounter(ctx context.Context, key string) (int, error) {
	count, err := persistence.LoadInt(ctx, e.store, key, 0)
	if err != nil {
		return 0, shared.WrapError("gamification", "CompleteTask", shared.ErrStorageUnavailable, "load "+key, err)
	}
	count++
	if err := e.store.Set(ctx, key, count); err != nil {
		return 0, shared.WrapError("gamification", "CompleteTask", shared.ErrStorageUnavailable, "persist "+key, err)
	}
	return count, nil
}

func (e *Engine) publish(event shared.Event) {
	if err := e.bus.Publish(event); err != nil {
		e.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func categoryCounterKey(cat gamification.Category) string {
	switch cat {
	case gamification.CategoryStudy:
		return persistence.KeyStudySessions
	case gamification.CategoryMeal:
		return persistence.KeyMealsCooked
	case gamification.CategoryCleaning:
		return persistence.KeyCleaningTasks
	case gamification.CategoryExpense:
		return persistence.KeyExpensesLogged
	default:
		return persistence.KeyDIYTasks
	}
}

func taskReason(cat gamification.Category) string {
	switch cat {
	case gamification.CategoryStudy:
		return "Study session completed"
	case gamification.CategoryMeal:
		return "Meal cooked"
	case gamification.CategoryCleaning:
		return "Cleaning task completed"
	case gamification.CategoryExpense:
		return "Expense logged"
	default:
		return "DIY task completed"
	}
}
