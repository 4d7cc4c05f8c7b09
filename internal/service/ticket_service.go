package service

import (
	"context"
	"strings"
	"time"

	"github.com/rolliedev/ticketflow/internal/domain"
	"github.com/rolliedev/ticketflow/internal/events"
	"github.com/rolliedev/ticketflow/internal/repository"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// TicketService drives every ticket mutation. Each operation runs as a
// single unit of work: authorization, precondition checks, the mutation and
// its audit events all commit together or not at all.
type TicketService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
	audit   *EventService
	uow     repository.UnitOfWork
	bus     events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	UserRepo   repository.UserRepository
	TicketRepo repository.TicketRepository
	Events     *EventService
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		users:   deps.UserRepo,
		tickets: deps.TicketRepo,
		audit:   deps.Events,
		uow:     deps.UnitOfWork,
		bus:     deps.Dispatcher,
	}
}

// CreateTicket opens a new ticket for the creator. New tickets start at
// status NEW, priority MEDIUM and unassigned.
func (s *TicketService) CreateTicket(ctx context.Context, title, description, creatorID string) (*domain.Ticket, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		creator, err := s.users.GetByID(ctx, creatorID)
		if err != nil {
			return err
		}

		ticket = &domain.Ticket{
			Title:       title,
			Description: description,
			Status:      domain.TicketStatusNew,
			Priority:    domain.TicketPriorityMedium,
			CreatedByID: creator.ID,
		}
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return err
		}

		event, err := s.audit.RecordCreated(ctx, ticket, creator)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// AssignTicket sets the ticket's assignee. Reassigning the current assignee
// is a silent no-op: no mutation, no event, no version bump.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID, actorID, assigneeID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if err := requireStaff(actor, "assign tickets"); err != nil {
			return err
		}

		assignee, err := s.users.GetByID(ctx, assigneeID)
		if err != nil {
			return err
		}
		if !assignee.Role.IsStaff() {
			return apperrors.NewForbidden("only agents or admins can be assigned to tickets")
		}

		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return apperrors.NewBusinessRuleViolation("closed tickets cannot be assigned", map[string]any{"ticketId": ticket.ID})
		}

		if ticket.AssignedTo(assignee.ID) {
			return nil
		}

		previous := ticket.AssigneeID
		ticket.AssigneeID = &assignee.ID
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}

		event, err := s.audit.RecordAssigned(ctx, ticket, actor, previous, assignee.ID)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// StartProgress moves the ticket to IN_PROGRESS. An unassigned ticket is
// auto-assigned to the actor first; afterwards only the assignee may start
// progress. Leaving RESOLVED clears resolvedAt.
func (s *TicketService) StartProgress(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if err := requireStaff(actor, "start progress on tickets"); err != nil {
			return err
		}

		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		currentStatus := ticket.Status

		if ticket.AssigneeID == nil {
			ticket.AssigneeID = &actor.ID
			event, err := s.audit.RecordAssigned(ctx, ticket, actor, nil, actor.ID)
			if err != nil {
				return err
			}
			recorded = append(recorded, *event)
		}

		if !ticket.AssignedTo(actor.ID) {
			return apperrors.NewForbidden("only the ticket assignee can start progress on the ticket")
		}

		if err := currentStatus.AssertTransitionTo(domain.TicketStatusInProgress); err != nil {
			return err
		}
		if currentStatus == domain.TicketStatusResolved {
			ticket.ResolvedAt = nil
		}
		ticket.Status = domain.TicketStatusInProgress

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		event, err := s.audit.RecordStatusChanged(ctx, ticket, actor, currentStatus, domain.TicketStatusInProgress)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// RequestCustomerInfo moves the ticket to WAITING_CUSTOMER.
func (s *TicketService) RequestCustomerInfo(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.transitionByStaff(ctx, ticketID, actorID, domain.TicketStatusWaitingCustomer, "request customer info", nil)
}

// ResolveTicket moves the ticket to RESOLVED and stamps resolvedAt.
func (s *TicketService) ResolveTicket(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	return s.transitionByStaff(ctx, ticketID, actorID, domain.TicketStatusResolved, "resolve tickets", func(ticket *domain.Ticket) {
		now := time.Now()
		ticket.ResolvedAt = &now
	})
}

func (s *TicketService) transitionByStaff(ctx context.Context, ticketID, actorID string, target domain.TicketStatus, action string, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if err := requireStaff(actor, action); err != nil {
			return err
		}

		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		currentStatus := ticket.Status
		if err := currentStatus.AssertTransitionTo(target); err != nil {
			return err
		}
		ticket.Status = target
		if mutate != nil {
			mutate(ticket)
		}

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		event, err := s.audit.RecordStatusChanged(ctx, ticket, actor, currentStatus, target)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// CloseTicketByCustomer lets the creator close their own ticket.
func (s *TicketService) CloseTicketByCustomer(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if err := requireCustomer(actor, "manually close tickets"); err != nil {
			return err
		}

		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := requireTicketCreator(actor, ticket, "close tickets"); err != nil {
			return err
		}

		currentStatus := ticket.Status
		if err := currentStatus.AssertTransitionTo(domain.TicketStatusClosed); err != nil {
			return err
		}
		ticket.Status = domain.TicketStatusClosed

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		event, err := s.audit.RecordStatusChanged(ctx, ticket, actor, currentStatus, domain.TicketStatusClosed)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// ChangePriority sets the ticket's priority. Unlike assignment there is no
// same-value short-circuit: the mutation and its event always happen.
func (s *TicketService) ChangePriority(ctx context.Context, ticketID, actorID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(newPriority)})
	}

	var ticket *domain.Ticket
	var recorded []domain.TicketEvent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if err := requireStaff(actor, "change ticket priority"); err != nil {
			return err
		}

		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		oldPriority := ticket.Priority
		ticket.Priority = newPriority

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		event, err := s.audit.RecordPriorityChanged(ctx, ticket, actor, oldPriority, newPriority)
		if err != nil {
			return err
		}
		recorded = append(recorded, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, recorded)
	return ticket, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// ListTickets returns tickets matching the filter, paginated and ordered by id.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

func (s *TicketService) publish(ctx context.Context, recorded []domain.TicketEvent) {
	if s.bus == nil {
		return
	}
	for _, event := range recorded {
		s.bus.Publish(ctx, events.FromAuditEvent(event))
	}
}
