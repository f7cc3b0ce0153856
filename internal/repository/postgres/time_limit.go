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
)

type TimeLimitRepository struct {
	p *Postgres
}

func (r *TimeLimitRepository) GetByStage(ctx context.Context, stage string) (*domain.WorkflowTimeLimit, error) {
	const op = "internal.repository.postgres.timelimit.GetByStage"

	query, args, err := r.p.sq.Select("stage", "time_limit_days", "reminder_days", "escalation_days", "is_active").
		From("workflow_time_limits").
		Where(sq.Eq{"stage": stage}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var tl domain.WorkflowTimeLimit
	if err := sqlx.GetContext(ctx, r.p.ext(), &tl, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: time limit for stage '%s'", op, apperrors.ErrNotFound, stage)
		}

		return nil, fmt.Errorf("%s: failed to get time limit: %w", op, err)
	}

	return &tl, nil
}

func (r *TimeLimitRepository) Upsert(ctx context.Context, tl *domain.WorkflowTimeLimit) error {
	const op = "internal.repository.postgres.timelimit.Upsert"

	query, args, err := r.p.sq.Insert("workflow_time_limits").
		Columns("stage", "time_limit_days", "reminder_days", "escalation_days", "is_active").
		Values(tl.Stage, tl.TimeLimitDays, tl.ReminderDays, tl.EscalationDays, tl.IsActive).
		Suffix(`ON CONFLICT (stage) DO UPDATE SET
            time_limit_days = EXCLUDED.time_limit_days,
            reminder_days = EXCLUDED.reminder_days,
            escalation_days = EXCLUDED.escalation_days,
            is_active = EXCLUDED.is_active`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
	}

	if _, err := r.p.ext().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute upsert: %w", op, err)
	}

	return nil
}
