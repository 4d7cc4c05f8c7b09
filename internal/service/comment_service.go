package service

import (
	"context"
	"strings"

	"github.com/rolliedev/ticketflow/internal/domain"
	"github.com/rolliedev/ticketflow/internal/events"
	"github.com/rolliedev/ticketflow/internal/repository"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// CommentService manages ticket discussion entries.
type CommentService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	audit    *EventService
	uow      repository.UnitOfWork
	bus      events.Dispatcher
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Events      *EventService
	UnitOfWork  repository.UnitOfWork
	Dispatcher  events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		users:    deps.UserRepo,
		audit:    deps.Events,
		uow:      deps.UnitOfWork,
		bus:      deps.Dispatcher,
	}
}

// AddComment appends a discussion entry. A customer replying to a ticket in
// WAITING_CUSTOMER or RESOLVED reopens it: the ticket auto-transitions to
// IN_PROGRESS within the same unit of work.
func (s *CommentService) AddComment(ctx context.Context, ticketID, authorID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}

	var comment *domain.Comment
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return apperrors.NewBusinessRuleViolation("closed tickets cannot be modified", map[string]any{"ticketId": ticket.ID})
		}

		author, err := s.users.GetByID(ctx, authorID)
		if err != nil {
			return err
		}
		if author.Role == domain.RoleCustomer && ticket.CreatedByID != author.ID {
			return apperrors.NewForbidden("customers cannot add comments to tickets they did not create")
		}

		comment = &domain.Comment{
			TicketID: ticket.ID,
			AuthorID: author.ID,
			Body:     text,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		event, err := s.audit.RecordCommented(ctx, ticket, author, comment.ID)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)

		// Customer response reopens the ticket automatically.
		if author.Role == domain.RoleCustomer &&
			(ticket.Status == domain.TicketStatusWaitingCustomer || ticket.Status == domain.TicketStatusResolved) {
			currentStatus := ticket.Status
			if currentStatus == domain.TicketStatusResolved {
				ticket.ResolvedAt = nil
			}
			ticket.Status = domain.TicketStatusInProgress
			if err := s.tickets.Update(ctx, ticket); err != nil {
				return err
			}
			event, err := s.audit.RecordStatusChanged(ctx, ticket, author, currentStatus, domain.TicketStatusInProgress)
			if err != nil {
				return err
			}
			recorded = append(recorded, *event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return comment, nil
}

// DeleteComment removes a discussion entry. Only admins and the comment's
// author may delete; the comment must belong to the stated ticket.
func (s *CommentService) DeleteComment(ctx context.Context, ticketID, commentID, actorID string) error {
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		comment, err := s.comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.TicketID != ticketID {
			return apperrors.NewBusinessRuleViolation("comment does not belong to the given ticket", map[string]any{
				"ticketId":  ticketID,
				"commentId": commentID,
			})
		}

		ticket, err := s.tickets.GetByID(ctx, comment.TicketID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return apperrors.NewBusinessRuleViolation("closed tickets cannot be modified", map[string]any{"ticketId": ticket.ID})
		}

		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		isAdmin := actor.Role == domain.RoleAdmin
		isAuthor := comment.AuthorID == actor.ID
		if !isAdmin && !isAuthor {
			return apperrors.NewForbidden("only admins or the comment author can delete a comment")
		}

		if err := s.comments.Delete(ctx, comment.ID); err != nil {
			return err
		}
		event, err := s.audit.RecordCommentDeleted(ctx, ticket, actor, comment.ID)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, recorded)
	return nil
}

// ListComments returns a ticket's comments oldest-first.
func (s *CommentService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	return s.comments.ListByTicket(ctx, ticketID)
}

func (s *CommentService) publish(ctx context.Context, recorded []domain.TicketEvent) {
	if s.bus == nil {
		return
	}
	for _, event := range recorded {
		s.bus.Publish(ctx, events.FromAuditEvent(event))
	}
}
