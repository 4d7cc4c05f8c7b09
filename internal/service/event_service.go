package service

import (
	"context"

	"github.com/rolliedev/ticketflow/internal/domain"
	"github.com/rolliedev/ticketflow/internal/repository"
)

// EventService owns the append-only audit trail. Every Record* helper must
// be called inside the same unit of work as the mutation it documents; the
// repository rejects standalone appends.
type EventService struct {
	events repository.EventRepository
}

// NewEventService constructs the service.
func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events}
}

// Timeline returns all events for a ticket, newest first (created_at DESC,
// id DESC). Safe to call for tickets with no events.
func (s *EventService) Timeline(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	return s.events.ListByTicket(ctx, ticketID)
}

// RecordCreated documents ticket creation.
func (s *EventService) RecordCreated(ctx context.Context, ticket *domain.Ticket, actor *domain.User) (*domain.TicketEvent, error) {
	return s.append(ctx, ticket, actor, domain.EventCreated, map[string]any{
		"ticketId":    ticket.ID,
		"createdById": actor.ID,
	})
}

// RecordAssigned documents an assignment change. previousAssigneeID is nil
// when the ticket was unassigned.
func (s *EventService) RecordAssigned(ctx context.Context, ticket *domain.Ticket, actor *domain.User, previousAssigneeID *string, assigneeID string) (*domain.TicketEvent, error) {
	var previous any
	if previousAssigneeID != nil {
		previous = *previousAssigneeID
	}
	return s.append(ctx, ticket, actor, domain.EventAssigned, map[string]any{
		"previousAssigneeId": previous,
		"assigneeId":         assigneeID,
	})
}

// RecordPriorityChanged documents a priority change.
func (s *EventService) RecordPriorityChanged(ctx context.Context, ticket *domain.Ticket, actor *domain.User, oldPriority, newPriority domain.TicketPriority) (*domain.TicketEvent, error) {
	return s.append(ctx, ticket, actor, domain.EventPriorityChanged, map[string]any{
		"oldPriority": string(oldPriority),
		"newPriority": string(newPriority),
	})
}

// RecordStatusChanged documents a status transition.
func (s *EventService) RecordStatusChanged(ctx context.Context, ticket *domain.Ticket, actor *domain.User, oldStatus, newStatus domain.TicketStatus) (*domain.TicketEvent, error) {
	return s.append(ctx, ticket, actor, domain.EventStatusChanged, map[string]any{
		"oldStatus": string(oldStatus),
		"newStatus": string(newStatus),
	})
}

// RecordCommented documents a new comment.
func (s *EventService) RecordCommented(ctx context.Context, ticket *domain.Ticket, actor *domain.User, commentID string) (*domain.TicketEvent, error) {
	return s.append(ctx, ticket, actor, domain.EventCommented, map[string]any{
		"commentId": commentID,
	})
}

// RecordCommentDeleted documents a comment removal.
func (s *EventService) RecordCommentDeleted(ctx context.Context, ticket *domain.Ticket, actor *domain.User, commentID string) (*domain.TicketEvent, error) {
	return s.append(ctx, ticket, actor, domain.EventCommentDeleted, map[string]any{
		"commentId": commentID,
	})
}

func (s *EventService) append(ctx context.Context, ticket *domain.Ticket, actor *domain.User, eventType domain.EventType, payload map[string]any) (*domain.TicketEvent, error) {
	event := &domain.TicketEvent{
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Type:     eventType,
		Payload:  payload,
	}
	if err := s.events.Append(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}
