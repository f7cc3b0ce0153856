package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/jmoiron/sqlx"
)

var assignmentColumns = []string{
	"id", "manuscript_id", "editor_id", "editor_email", "assigned_by", "assigned_at", "deadline",
	"status", "response_at", "conflict_declared", "conflict_details", "decline_reason", "comments",
}

type AssignmentRepository struct {
	p *Postgres
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.EditorAssignment) error {
	const op = "internal.repository.postgres.assignment.Create"

	if err := a.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.p.sq.Insert("editor_assignments").
		Columns(assignmentColumns...).
		Values(
			a.ID, a.ManuscriptID, a.EditorID, a.EditorEmail, a.AssignedBy, a.AssignedAt, a.Deadline,
			a.Status, a.ResponseAt, a.ConflictDeclared, a.ConflictDetails, a.DeclineReason, a.Comments,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.p.ext().ExecContext(ctx, query, args...); err != nil {
		return mapPQError(op, err, fmt.Sprintf("assignment '%s'", a.ID))
	}

	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, id string) (*domain.EditorAssignment, error) {
	const op = "internal.repository.postgres.assignment.Get"

	return r.getOne(ctx, r.p.ext(), op, id, "")
}

func (r *AssignmentRepository) ListByManuscript(ctx context.Context, manuscriptID string) ([]domain.EditorAssignment, error) {
	const op = "internal.repository.postgres.assignment.ListByManuscript"

	return r.list(ctx, op, sq.Eq{"manuscript_id": manuscriptID})
}

func (r *AssignmentRepository) FindPending(ctx context.Context, before time.Time) ([]domain.EditorAssignment, error) {
	const op = "internal.repository.postgres.assignment.FindPending"

	return r.list(ctx, op, sq.And{
		sq.Eq{"status": domain.AssignmentPending},
		sq.Lt{"deadline": before},
	})
}

func (r *AssignmentRepository) CompareAndSet(ctx context.Context, id string, expected domain.AssignmentStatus, mutate func(*domain.EditorAssignment) error) (bool, error) {
	const op = "internal.repository.postgres.assignment.CompareAndSet"

	var applied bool

	err := r.p.inTx(ctx, op, func(txp *Postgres) error {
		current, err := r.getOne(ctx, txp.tx, op, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		if current.Status != expected {
			return nil
		}

		next := *current
		if err := mutate(&next); err != nil {
			if errors.Is(err, repository.ErrSkip) {
				return nil
			}

			return err
		}

		if err := next.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		query, args, err := txp.sq.Update("editor_assignments").
			SetMap(map[string]interface{}{
				"status":            next.Status,
				"response_at":       next.ResponseAt,
				"conflict_declared": next.ConflictDeclared,
				"conflict_details":  next.ConflictDetails,
				"decline_reason":    next.DeclineReason,
				"comments":          next.Comments,
			}).
			Where(sq.Eq{"id": id, "status": expected}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: failed to build update query: %w", op, err)
		}

		res, err := txp.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: failed to execute update: %w", op, err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: failed to read rows affected: %w", op, err)
		}

		applied = rowsAffected == 1

		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func (r *AssignmentRepository) getOne(ctx context.Context, q sqlx.QueryerContext, op, id, suffix string) (*domain.EditorAssignment, error) {
	builder := r.p.sq.Select(assignmentColumns...).
		From("editor_assignments").
		Where(sq.Eq{"id": id})

	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var a domain.EditorAssignment
	if err := sqlx.GetContext(ctx, q, &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || malformedID(err) {
			return nil, fmt.Errorf("%s: %w: assignment with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get assignment: %w", op, err)
	}

	return &a, nil
}

func (r *AssignmentRepository) list(ctx context.Context, op string, where sq.Sqlizer) ([]domain.EditorAssignment, error) {
	query, args, err := r.p.sq.Select(assignmentColumns...).
		From("editor_assignments").
		Where(where).
		OrderBy("assigned_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	assignments := []domain.EditorAssignment{}
	if err := sqlx.SelectContext(ctx, r.p.ext(), &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return assignments, nil
}
