package dto

import (
	"time"

	"github.com/rolliedev/ticketflow/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// TicketResponse is the ticket snapshot returned by every operation.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatedByID string                `json:"created_by_id"`
	AssigneeID  *string               `json:"assignee_id"`
	Version     int                   `json:"version"`
	CreatedAt   time.Time             `json:"created_at"`
	ModifiedAt  time.Time             `json:"modified_at"`
	ResolvedAt  *time.Time            `json:"resolved_at"`
}

// FromTicket maps a domain ticket.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedByID: ticket.CreatedByID,
		AssigneeID:  ticket.AssigneeID,
		Version:     ticket.Version,
		CreatedAt:   ticket.CreatedAt,
		ModifiedAt:  ticket.ModifiedAt,
		ResolvedAt:  ticket.ResolvedAt,
	}
}

// FromTickets maps a slice of domain tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, FromTicket(&tickets[i]))
	}
	return items
}
