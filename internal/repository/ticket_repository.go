package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolliedev/ticketflow/internal/domain"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

const defaultPageSize = 20

// TicketFilter captures listing parameters. All filters are optional and
// conjunctive; Keyword matches title OR description, case-insensitive.
type TicketFilter struct {
	Keyword       string
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	CreatorID     *string
	AssigneeID    *string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	Page          int
	Size          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update performs a compare-and-swap on the stored version: the row is
	// written only when its version still equals ticket.Version, and the
	// counter is incremented in the same statement. A stale version yields
	// a ConcurrentModification error.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, created_by_id, assignee_id, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, version, created_at, modified_at`
	q := querierFrom(ctx, r.pool)
	if err := q.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedByID,
		ticket.AssigneeID,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.ModifiedAt); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4,
            assignee_id=$5, resolved_at=$6, version=version+1, modified_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, modified_at`
	q := querierFrom(ctx, r.pool)
	err := q.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.ResolvedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.ModifiedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}

	// No row matched: either the ticket is gone or the version is stale.
	var exists bool
	if exErr := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); exErr != nil {
		return apperrors.MapError(exErr)
	}
	if !exists {
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticket.ID})
	}
	return apperrors.NewConcurrentModification("ticket", map[string]any{
		"ticketId": ticket.ID,
		"version":  ticket.Version,
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, status, priority, created_by_id, assignee_id,
               version, created_at, modified_at, resolved_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	q := querierFrom(ctx, r.pool)
	if err := q.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedByID,
		&ticket.AssigneeID,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.ModifiedAt,
		&ticket.ResolvedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": id})
		}
		return nil, apperrors.MapError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, title, description, status, priority, created_by_id, assignee_id,
                    version, created_at, modified_at, resolved_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, "%"+strings.ToLower(keyword)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.CreatedAfter != nil {
		args = append(args, *filter.CreatedAfter)
		clauses = append(clauses, fmt.Sprintf("created_at > $%d", len(args)))
	}

	size := filter.Size
	if size <= 0 {
		size = defaultPageSize
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY id LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), size, page*size)

	q := querierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatedByID,
			&ticket.AssigneeID,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.ModifiedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
