package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolliedev/ticketflow/internal/domain"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// ErrNoActiveUnitOfWork signals a programming-contract violation: audit
// events must be appended inside the same unit of work as the mutation they
// describe, never standalone.
var ErrNoActiveUnitOfWork = errors.New("ticket event append requires an active unit of work")

// EventRepository stores the append-only audit trail. Events are never
// updated or deleted.
type EventRepository interface {
	Append(ctx context.Context, event *domain.TicketEvent) error
	// ListByTicket returns the full timeline ordered newest-first
	// (created_at DESC, id DESC for same-instant determinism).
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository builds repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.TicketEvent) error {
	tx, ok := TxFromContext(ctx)
	if !ok {
		return ErrNoActiveUnitOfWork
	}
	const query = `
        INSERT INTO ticket_events (ticket_id, actor_id, event_type, payload)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query,
		event.TicketID,
		event.ActorID,
		event.Type,
		event.Payload,
	).Scan(&event.ID, &event.CreatedAt); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (r *eventRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	const query = `
        SELECT id, ticket_id, actor_id, event_type, payload, created_at
        FROM ticket_events WHERE ticket_id=$1
        ORDER BY created_at DESC, id DESC`
	q := querierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	defer rows.Close()

	result := []domain.TicketEvent{}
	for rows.Next() {
		var event domain.TicketEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.ActorID,
			&event.Type,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
