package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolliedev/ticketflow/internal/domain"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
	// ListByTicket returns comments ordered oldest-first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	q := querierFrom(ctx, r.pool)
	if err := q.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, body, created_at
        FROM ticket_comments WHERE id=$1`
	var comment domain.Comment
	q := querierFrom(ctx, r.pool)
	if err := q.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Body,
		&comment.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("comment", map[string]any{"commentId": id})
		}
		return nil, apperrors.MapError(err)
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	q := querierFrom(ctx, r.pool)
	cmd, err := q.Exec(ctx, `DELETE FROM ticket_comments WHERE id=$1`, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("comment", map[string]any{"commentId": id})
	}
	return nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, body, created_at
        FROM ticket_comments WHERE ticket_id=$1
        ORDER BY created_at ASC, id ASC`
	q := querierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
