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

var invitationColumns = []string{
	"id", "manuscript_id", "reviewer_id", "reviewer_email", "reviewer_name", "invited_by", "invited_at",
	"response_deadline", "review_deadline", "status", "response_at", "first_reminder_sent", "reminder_claimed_at",
	"final_reminder_sent", "withdrawn_at", "review_submitted_at", "invitation_token", "decline_reason",
}

type InvitationRepository struct {
	p *Postgres
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.ReviewerInvitation) error {
	const op = "internal.repository.postgres.invitation.Create"

	if err := inv.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.p.sq.Insert("reviewer_invitations").
		Columns(invitationColumns...).
		Values(
			inv.ID, inv.ManuscriptID, inv.ReviewerID, inv.ReviewerEmail, inv.ReviewerName, inv.InvitedBy, inv.InvitedAt,
			inv.ResponseDeadline, inv.ReviewDeadline, inv.Status, inv.ResponseAt, inv.FirstReminderSent, inv.ReminderClaimedAt,
			inv.FinalReminderSent, inv.WithdrawnAt, inv.ReviewSubmittedAt, inv.InvitationToken, inv.DeclineReason,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.p.ext().ExecContext(ctx, query, args...); err != nil {
		return mapPQError(op, err, fmt.Sprintf("invitation '%s'", inv.ID))
	}

	return nil
}

func (r *InvitationRepository) Get(ctx context.Context, id string) (*domain.ReviewerInvitation, error) {
	const op = "internal.repository.postgres.invitation.Get"

	return r.getOne(ctx, r.p.ext(), op, sq.Eq{"id": id}, "")
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*domain.ReviewerInvitation, error) {
	const op = "internal.repository.postgres.invitation.GetByToken"

	return r.getOne(ctx, r.p.ext(), op, sq.Eq{"invitation_token": token}, "")
}

func (r *InvitationRepository) ListByManuscript(ctx context.Context, manuscriptID string) ([]domain.ReviewerInvitation, error) {
	const op = "internal.repository.postgres.invitation.ListByManuscript"

	return r.list(ctx, op, sq.Eq{"manuscript_id": manuscriptID})
}

func (r *InvitationRepository) FindNeedingReminder(ctx context.Context, before time.Time) ([]domain.ReviewerInvitation, error) {
	const op = "internal.repository.postgres.invitation.FindNeedingReminder"

	return r.list(ctx, op, sq.And{
		sq.Eq{"status": domain.InvitationPending},
		sq.LtOrEq{"invited_at": before},
		sq.Eq{"first_reminder_sent": nil},
	})
}

func (r *InvitationRepository) FindNeedingWithdrawal(ctx context.Context, before time.Time) ([]domain.ReviewerInvitation, error) {
	const op = "internal.repository.postgres.invitation.FindNeedingWithdrawal"

	return r.list(ctx, op, sq.And{
		sq.Eq{"status": domain.InvitationPending},
		sq.LtOrEq{"invited_at": before},
		sq.NotEq{"first_reminder_sent": nil},
	})
}

func (r *InvitationRepository) CompareAndSet(ctx context.Context, id string, expected domain.InvitationStatus, mutate func(*domain.ReviewerInvitation) error) (bool, error) {
	const op = "internal.repository.postgres.invitation.CompareAndSet"

	var applied bool

	err := r.p.inTx(ctx, op, func(txp *Postgres) error {
		current, err := r.getOne(ctx, txp.tx, op, sq.Eq{"id": id}, "FOR UPDATE")
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

		query, args, err := txp.sq.Update("reviewer_invitations").
			SetMap(map[string]interface{}{
				"status":              next.Status,
				"response_at":         next.ResponseAt,
				"review_deadline":     next.ReviewDeadline,
				"first_reminder_sent": next.FirstReminderSent,
				"reminder_claimed_at": next.ReminderClaimedAt,
				"final_reminder_sent": next.FinalReminderSent,
				"withdrawn_at":        next.WithdrawnAt,
				"review_submitted_at": next.ReviewSubmittedAt,
				"decline_reason":      next.DeclineReason,
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

func (r *InvitationRepository) getOne(ctx context.Context, q sqlx.QueryerContext, op string, where sq.Sqlizer, suffix string) (*domain.ReviewerInvitation, error) {
	builder := r.p.sq.Select(invitationColumns...).
		From("reviewer_invitations").
		Where(where)

	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var inv domain.ReviewerInvitation
	if err := sqlx.GetContext(ctx, q, &inv, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || malformedID(err) {
			return nil, fmt.Errorf("%s: %w: invitation", op, apperrors.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get invitation: %w", op, err)
	}

	return &inv, nil
}

func (r *InvitationRepository) list(ctx context.Context, op string, where sq.Sqlizer) ([]domain.ReviewerInvitation, error) {
	query, args, err := r.p.sq.Select(invitationColumns...).
		From("reviewer_invitations").
		Where(where).
		OrderBy("invited_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	invitations := []domain.ReviewerInvitation{}
	if err := sqlx.SelectContext(ctx, r.p.ext(), &invitations, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return invitations, nil
}
