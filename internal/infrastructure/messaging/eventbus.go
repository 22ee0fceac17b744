// Package messaging implements the notification event bus for the Student
// Life Hub core. Delivery is synchronous, in subscription order, and
// best-effort: there is no retry and no replay, so a subscriber registered
// after an event fires never sees it.
package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
)

// ErrBusClosed is returned when operations are attempted on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// Bus is an in-memory implementation of shared.EventBus. Handler failures
// are isolated: a failing or panicking subscriber is logged and the
// remaining subscribers still run, so a bad renderer cannot abort the
// domain operation that published the event.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	logger      *slog.Logger
	metrics     *Metrics
	closed      bool
}

// Config contains configuration for the Bus.
type Config struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// EnableMetrics enables delivery metrics collection.
	EnableMetrics bool
}

// New creates a new event bus.
func New(cfg Config) *Bus {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	bus := &Bus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		logger:   cfg.Logger,
	}
	if cfg.EnableMetrics {
		bus.metrics = NewMetrics()
	}
	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "event_type", eventType)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *Bus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.logger.Debug("subscribed global handler")
	return nil
}

// Publish delivers an event to all subscribed handlers, inline with the
// caller, type-specific handlers first, in subscription order.
func (b *Bus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	for _, handler := range handlers {
		b.deliver(event, handler)
	}
	return nil
}

// deliver runs one handler, containing errors and panics.
func (b *Bus) deliver(event shared.Event, handler shared.EventHandler) {
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("handler panicked",
					"event_type", event.EventType(),
					"panic", r,
				)
				err = errors.New("handler panicked")
			}
		}()
		err = handler(event)
	}()

	duration := time.Since(start)
	if b.metrics != nil {
		b.metrics.RecordDelivery(event.EventType(), duration, err == nil)
	}
	if err != nil {
		b.logger.Error("handler error",
			"event_type", event.EventType(),
			"duration", duration,
			"error", err,
		)
	}
}

// Close marks the bus closed; further publishes and subscribes fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.logger.Info("event bus closed")
	return nil
}

// BusMetrics returns the current metrics (nil when disabled).
func (b *Bus) BusMetrics() *Metrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics tracks event bus delivery counts and durations.
type Metrics struct {
	mu sync.RWMutex

	PublishedTotal map[shared.EventType]int64
	Deliveries     int64
	DeliveryFailed int64
	TotalDuration  time.Duration
	DeliveriesBy   map[shared.EventType]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		PublishedTotal: make(map[shared.EventType]int64),
		DeliveriesBy:   make(map[shared.EventType]int64),
	}
}

// RecordPublish records a publish.
func (m *Metrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedTotal[eventType]++
}

// RecordDelivery records one handler delivery.
func (m *Metrics) RecordDelivery(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deliveries++
	m.TotalDuration += duration
	m.DeliveriesBy[eventType]++
	if !success {
		m.DeliveryFailed++
	}
}

// Published returns the publish count for one event type.
func (m *Metrics) Published(eventType shared.EventType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PublishedTotal[eventType]
}
