// Package persistence implements the key-value persistence layer for the
// Student Life Hub core. All state is stored as JSON values under a flat,
// string-keyed namespace, one logical entity per key.
//
// Several backends implement the same Store contract:
//   - MemoryStore: in-process map (tests, default)
//   - FileStore: single JSON file (local single-user installs)
//   - RedisStore: Redis-backed store
//   - PostgresStore: PostgreSQL-backed store over a single kv table
//   - SQLiteStore: SQLite-backed store for zero-server installs
//
// The contract is deliberately last-write-wins at key granularity: there is
// no cross-writer arbitration. A deployment with concurrent writers needs a
// versioning layer on top, which is out of scope here.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrKeyNotFound is returned when the requested key has no value.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("store: key cannot be empty")

	// ErrNilValue is returned when attempting to store a nil value.
	ErrNilValue = errors.New("store: value cannot be nil")

	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrSerialization is returned when JSON encoding or decoding fails.
	ErrSerialization = errors.New("store: serialization failed")

	// ErrClosed is returned when operations are attempted on a closed store.
	ErrClosed = errors.New("store: closed")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY NAMESPACE
// ══════════════════════════════════════════════════════════════════════════════

// Storage keys. The "slh_" prefix namespaces the app inside a shared store.
const (
	// Profile, session and gamification
	KeyProfile              = "slh_user_profile"
	KeyProgression          = "slh_progression"
	KeyActivityLog          = "slh_activity_log"
	KeyTier                 = "slh_user_tier"
	KeyPreferences          = "slh_user_preferences"
	KeyNotificationSettings = "slh_notification_settings"

	// Per-category completion counters, maintained by task collaborators and
	// read by the progression engine for achievement evaluation.
	KeyTotalTasksCompleted = "slh_total_tasks_completed"
	KeyMealsCooked         = "slh_meals_cooked_count"
	KeyCleaningTasks       = "slh_cleaning_tasks_count"
	KeyStudySessions       = "slh_study_sessions_count"
	KeyExpensesLogged      = "slh_expenses_logged_count"
	KeyDIYTasks            = "slh_diy_tasks_count"

	// Section data owned by external collaborators; tracked here so section
	// clears and backups cover them.
	KeyStudyTimetable  = "slh_study_timetable"
	KeyStudyGoals      = "slh_study_goals"
	KeyFlashcards      = "slh_flashcards"
	KeyPlannedMeals    = "slh_planned_meals"
	KeyFavoriteMeals   = "slh_favorite_meals"
	KeyShoppingList    = "slh_shopping_list"
	KeyCleaningRoutine = "slh_cleaning_routine"
	KeyDIYTaskList     = "slh_diy_tasks"
	KeyBudgetData      = "slh_budget_data"
	KeySavingsGoals    = "slh_savings_goals"
)

// KnownKeys returns every key the app owns, in a stable order. Backups and
// full purges iterate this list.
func KnownKeys() []string {
	return []string{
		KeyProfile,
		KeyProgression,
		KeyActivityLog,
		KeyTier,
		KeyPreferences,
		KeyNotificationSettings,
		KeyTotalTasksCompleted,
		KeyMealsCooked,
		KeyCleaningTasks,
		KeyStudySessions,
		KeyExpensesLogged,
		KeyDIYTasks,
		KeyStudyTimetable,
		KeyStudyGoals,
		KeyFlashcards,
		KeyPlannedMeals,
		KeyFavoriteMeals,
		KeyShoppingList,
		KeyCleaningRoutine,
		KeyDIYTaskList,
		KeyBudgetData,
		KeySavingsGoals,
	}
}

// SectionKeys maps a section name to the keys it owns, for section clears.
func SectionKeys(section string) ([]string, bool) {
	sections := map[string][]string{
		"study":    {KeyStudyTimetable, KeyStudyGoals, KeyFlashcards},
		"meals":    {KeyPlannedMeals, KeyFavoriteMeals, KeyShoppingList},
		"cleaning": {KeyCleaningRoutine},
		"diy":      {KeyDIYTaskList},
		"budget":   {KeyBudgetData, KeySavingsGoals},
	}
	keys, ok := sections[section]
	return keys, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Store is the key-value persistence contract consumed by the core.
// Values are JSON-serialized; Get returns the raw JSON for the caller to
// decode. Get returns ErrKeyNotFound when the key has no value.
type Store interface {
	// Get returns the raw JSON value stored under key.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set serializes value to JSON and stores it under key.
	Set(ctx context.Context, key string, value interface{}) error

	// Remove deletes the value stored under key. Removing an absent key is
	// not an error.
	Remove(ctx context.Context, key string) error

	// Keys returns all keys currently present in the store's namespace.
	Keys(ctx context.Context) ([]string, error)

	// Ping probes store availability.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Load decodes the value stored under key into out. It returns false with a
// nil error when the key is absent, so callers can fall back to defaults.
func Load(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrSerialization, key, err)
	}
	return true, nil
}

// LoadInt loads an integer counter, returning fallback when the key is absent.
func LoadInt(ctx context.Context, s Store, key string, fallback int) (int, error) {
	var v int
	found, err := Load(ctx, s, key, &v)
	if err != nil {
		return fallback, err
	}
	if !found {
		return fallback, nil
	}
	return v, nil
}

// marshalValue is the shared encoding path for Set implementations.
func marshalValue(key string, value interface{}) ([]byte, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}
	if value == nil {
		return nil, ErrNilValue
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialization, key, err)
	}
	return data, nil
}
