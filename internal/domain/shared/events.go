package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive everything the presentation layer reacts
// to. Each event represents something significant that happened in the core.
const (
	// Auth/session events
	EventLogin          EventType = "auth.login"
	EventSignup         EventType = "auth.signup"
	EventLogout         EventType = "auth.logout"
	EventProfileUpdated EventType = "auth.profile_updated"
	EventTierUpgraded   EventType = "auth.tier_upgraded"
	EventAccountDeleted EventType = "auth.account_deleted"

	// Gamification events
	EventPointsAwarded       EventType = "gamification.points_awarded"
	EventLevelUp             EventType = "gamification.level_up"
	EventStreakUpdated       EventType = "gamification.streak_updated"
	EventAchievementUnlocked EventType = "gamification.achievement_unlocked"
	EventTaskCompleted       EventType = "gamification.task_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Auth Events
// ═══════════════════════════════════════════════════════════════════════════

// AuthEvent is emitted for session lifecycle transitions (login, signup,
// logout, account deletion). The payload carries the profile snapshot the
// presentation layer renders.
type AuthEvent struct {
	BaseEvent
	Email    string `json:"email"`
	Name     string `json:"name"`
	Tier     string `json:"tier"`
	Provider string `json:"provider,omitempty"`
}

// Payload implements Event interface.
func (e AuthEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":    e.Email,
		"name":     e.Name,
		"tier":     e.Tier,
		"provider": e.Provider,
	}
}

// NewAuthEvent creates an auth lifecycle event.
func NewAuthEvent(eventType EventType, email, name, tier, provider string) AuthEvent {
	return AuthEvent{
		BaseEvent: NewBaseEvent(eventType, email),
		Email:     email,
		Name:      name,
		Tier:      tier,
		Provider:  provider,
	}
}

// TierUpgradedEvent is emitted when the account tier changes.
type TierUpgradedEvent struct {
	BaseEvent
	Tier string `json:"tier"`
}

// Payload implements Event interface.
func (e TierUpgradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"tier": e.Tier}
}

// NewTierUpgradedEvent creates a new TierUpgradedEvent.
func NewTierUpgradedEvent(email, tier string) TierUpgradedEvent {
	return TierUpgradedEvent{
		BaseEvent: NewBaseEvent(EventTierUpgraded, email),
		Tier:      tier,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent is emitted every time points are awarded.
type PointsAwardedEvent struct {
	BaseEvent
	Points int    `json:"points"`
	Reason string `json:"reason"`
	Level  int    `json:"level"`
	Total  int    `json:"total"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"points": e.Points,
		"reason": e.Reason,
		"level":  e.Level,
		"total":  e.Total,
	}
}

// NewPointsAwardedEvent creates a new PointsAwardedEvent.
func NewPointsAwardedEvent(points int, reason string, level, total int) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent: NewBaseEvent(EventPointsAwarded, "progression"),
		Points:    points,
		Reason:    reason,
		Level:     level,
		Total:     total,
	}
}

// LevelUpEvent is emitted when the level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, "progression"),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakUpdatedEvent is emitted when the daily streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	Streak        int  `json:"streak"`
	LongestStreak int  `json:"longest_streak"`
	Continued     bool `json:"continued"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"streak":         e.Streak,
		"longest_streak": e.LongestStreak,
		"continued":      e.Continued,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(streak, longest int, continued bool) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, "progression"),
		Streak:        streak,
		LongestStreak: longest,
		Continued:     continued,
	}
}

// AchievementUnlockedEvent is emitted when an achievement unlocks. It carries
// the full descriptor so renderers do not need a catalog lookup.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"description":    e.Description,
		"icon":           e.Icon,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(id, name, description, icon string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, id),
		AchievementID: id,
		Name:          name,
		Description:   description,
		Icon:          icon,
	}
}

// TaskCompletedEvent is emitted when a category task completes.
type TaskCompletedEvent struct {
	BaseEvent
	Category string `json:"category"`
	Count    int    `json:"count"`
	Points   int    `json:"points"`
}

// Payload implements Event interface.
func (e TaskCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"category": e.Category,
		"count":    e.Count,
		"points":   e.Points,
	}
}

// NewTaskCompletedEvent creates a new TaskCompletedEvent.
func NewTaskCompletedEvent(category string, count, points int) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent: NewBaseEvent(EventTaskCompleted, category),
		Category:  category,
		Count:     count,
		Points:    points,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
