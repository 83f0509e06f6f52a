// Package events provides the in-process publish/subscribe bus used to push
// generation activity to connected dashboard clients.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of system event.
type EventType string

const (
	// ChartGenerated fires after a chart request is served.
	ChartGenerated EventType = "chart_generated"
	// DashboardGenerated fires after a dashboard is assembled.
	DashboardGenerated EventType = "dashboard_generated"
	// FeedbackReceived fires when a user rates a chart.
	FeedbackReceived EventType = "feedback_received"
)

// Event is a single published event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block; slow consumers
// should buffer internally and drop.
type Handler func(*Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a simple synchronous in-process event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64
	log      zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscription),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type. The returned id removes
// the handler when passed to Unsubscribe; long-lived subscribers may ignore
// it.
func (b *Bus) Subscribe(eventType EventType, handler Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes a handler previously registered with Subscribe.
// Unknown ids are a no-op.
func (b *Bus) Unsubscribe(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// SubscriberCount reports how many handlers are registered for an event type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish delivers data to every handler subscribed to its event type.
func (b *Bus) Publish(data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, sub := range handlers {
		sub.handler(event)
	}

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Int("handlers", len(handlers)).
		Msg("Event published")
}
