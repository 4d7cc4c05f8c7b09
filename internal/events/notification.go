package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/rolliedev/ticketflow/internal/domain"
)

// Notification mirrors a committed audit event for in-process subscribers.
type Notification struct {
	ID        string
	Type      domain.EventType
	TicketID  string
	ActorID   string
	Timestamp time.Time
	Payload   map[string]any
}

// FromAuditEvent builds a notification from a persisted ticket event.
func FromAuditEvent(event domain.TicketEvent) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      event.Type,
		TicketID:  event.TicketID,
		ActorID:   event.ActorID,
		Timestamp: event.CreatedAt,
		Payload:   event.Payload,
	}
}
