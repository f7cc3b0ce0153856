package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var manuscriptColumns = []string{
	"id", "title", "author_id", "status", "submitted_at", "updated_at", "editor_id", "reviewer_ids",
}

type ManuscriptRepository struct {
	p *Postgres
}

func (r *ManuscriptRepository) Create(ctx context.Context, m *domain.Manuscript) error {
	const op = "internal.repository.postgres.manuscript.Create"

	query, args, err := r.p.sq.Insert("manuscripts").
		Columns(manuscriptColumns...).
		Values(m.ID, m.Title, m.AuthorID, m.Status, m.SubmittedAt, m.UpdatedAt, m.EditorID, reviewerArray(m.ReviewerIDs)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.p.ext().ExecContext(ctx, query, args...); err != nil {
		return mapPQError(op, err, fmt.Sprintf("manuscript '%s'", m.ID))
	}

	return nil
}

func (r *ManuscriptRepository) Get(ctx context.Context, id string) (*domain.Manuscript, error) {
	return r.get(ctx, "internal.repository.postgres.manuscript.Get", id, "")
}

func (r *ManuscriptRepository) GetForUpdate(ctx context.Context, id string) (*domain.Manuscript, error) {
	return r.get(ctx, "internal.repository.postgres.manuscript.GetForUpdate", id, "FOR UPDATE")
}

func (r *ManuscriptRepository) get(ctx context.Context, op, id, suffix string) (*domain.Manuscript, error) {
	builder := r.p.sq.Select(manuscriptColumns...).
		From("manuscripts").
		Where(sq.Eq{"id": id})

	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var m domain.Manuscript
	if err := sqlx.GetContext(ctx, r.p.ext(), &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || malformedID(err) {
			return nil, fmt.Errorf("%s: %w: manuscript with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get manuscript: %w", op, err)
	}

	return &m, nil
}

func (r *ManuscriptRepository) Update(ctx context.Context, m *domain.Manuscript) error {
	const op = "internal.repository.postgres.manuscript.Update"

	query, args, err := r.p.sq.Update("manuscripts").
		Set("status", m.Status).
		Set("editor_id", m.EditorID).
		Set("reviewer_ids", reviewerArray(m.ReviewerIDs)).
		Set("updated_at", m.UpdatedAt).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := r.p.ext().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: manuscript with id '%s'", op, apperrors.ErrNotFound, m.ID)
	}

	return nil
}

// reviewerArray keeps the NOT NULL reviewer_ids column populated.
func reviewerArray(ids pq.StringArray) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}

	return ids
}
