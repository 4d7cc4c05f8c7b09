package dto

import (
	"time"

	"github.com/rolliedev/ticketflow/internal/domain"
)

// TicketEventResponse represents a timeline entry.
type TicketEventResponse struct {
	ID        int64            `json:"id"`
	TicketID  string           `json:"ticket_id"`
	ActorID   string           `json:"actor_id"`
	Type      domain.EventType `json:"type"`
	Payload   map[string]any   `json:"payload"`
	CreatedAt time.Time        `json:"created_at"`
}

// FromEvents maps a slice of domain events.
func FromEvents(events []domain.TicketEvent) []TicketEventResponse {
	items := make([]TicketEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, TicketEventResponse{
			ID:        event.ID,
			TicketID:  event.TicketID,
			ActorID:   event.ActorID,
			Type:      event.Type,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return items
}
