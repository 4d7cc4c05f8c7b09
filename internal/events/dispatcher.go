package events

import (
	"context"
	"sync"

	"github.com/rolliedev/ticketflow/internal/domain"
)

// EventHandler handles a published notification.
type EventHandler func(context.Context, Notification) error

// Dispatcher fans committed audit events out to in-process subscribers.
// Publication happens after the owning unit of work commits; the durable
// record is the ticket_events table, subscribers are observability hooks.
type Dispatcher interface {
	Publish(ctx context.Context, notification Notification)
	Subscribe(eventType domain.EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[domain.EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[domain.EventType][]EventHandler),
	}
}

// Publish synchronously invokes handlers for the given notification.
// Handler errors never propagate back into the business operation.
func (d *inMemoryDispatcher) Publish(ctx context.Context, notification Notification) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[notification.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, notification)
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType domain.EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
