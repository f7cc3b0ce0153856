package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/google/uuid"
)

type InviteReviewerInput struct {
	ManuscriptID  string
	ReviewerID    string
	ReviewerEmail string
	ReviewerName  string
	InvitedBy     string
}

type InvitationService interface {
	InviteReviewer(ctx context.Context, in InviteReviewerInput) (*domain.ReviewerInvitation, error)
	GetInvitation(ctx context.Context, token string) (*domain.ReviewerInvitation, error)
	SubmitInvitationResponse(ctx context.Context, token string, resp workflow.InvitationResponse) (*domain.ReviewerInvitation, error)
	SubmitReview(ctx context.Context, token string) (*domain.ReviewerInvitation, error)
}

type InvitationServiceImpl struct {
	BaseService
}

func NewInvitationService(base BaseService) *InvitationServiceImpl {
	return &InvitationServiceImpl{BaseService: base}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *InvitationServiceImpl) InviteReviewer(ctx context.Context, in InviteReviewerInput) (*domain.ReviewerInvitation, error) {
	const op = "internal.service.invitation.InviteReviewer"
	log := s.log.With(slog.String("op", op), slog.String("manuscript_id", in.ManuscriptID), slog.String("reviewer_id", in.ReviewerID))

	pol, err := s.policies.Get(ctx, policy.StageReviewerInvitation)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load policy: %w", op, err)
	}

	now := s.opts.Now()

	inv := &domain.ReviewerInvitation{
		ID:               uuid.NewString(),
		ManuscriptID:     in.ManuscriptID,
		ReviewerID:       in.ReviewerID,
		ReviewerEmail:    in.ReviewerEmail,
		ReviewerName:     in.ReviewerName,
		InvitedBy:        in.InvitedBy,
		InvitedAt:        now,
		ResponseDeadline: now.Add(pol.TimeLimit),
		Status:           domain.InvitationPending,
		InvitationToken:  newToken(),
	}

	var title string

	err = s.transaction(ctx, op, func(tx repository.Store) error {
		m, err := tx.Manuscripts().GetForUpdate(ctx, in.ManuscriptID)
		if err != nil {
			return err
		}

		if _, err := workflow.Apply(m, workflow.EventAssignReviewer); err != nil {
			return err
		}

		existing, err := tx.Invitations().ListByManuscript(ctx, in.ManuscriptID)
		if err != nil {
			return err
		}

		for _, e := range existing {
			if e.ReviewerID == in.ReviewerID && (e.Status == domain.InvitationPending || e.Status == domain.InvitationAccepted) {
				return fmt.Errorf("%w: reviewer '%s' already has an open invitation", apperrors.ErrConflict, in.ReviewerID)
			}
		}

		if err := tx.Invitations().Create(ctx, inv); err != nil {
			return err
		}

		title = m.Title
		m.UpdatedAt = now

		return tx.Manuscripts().Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	log.Info("reviewer invited", slog.String("invitation_id", inv.ID), slog.Time("response_deadline", inv.ResponseDeadline))

	// Reminders follow if the invitation mail is lost.
	s.notify(ctx, log, notify.TemplateReviewerInvitation, inv.ReviewerEmail, map[string]string{
		"manuscript_id":     inv.ManuscriptID,
		"manuscript_title":  title,
		"reviewer_name":     inv.ReviewerName,
		"response_deadline": inv.ResponseDeadline.Format(deadlineLayout),
		"response_url":      s.responseURL(inv.InvitationToken),
	})

	return inv, nil
}

func (s *InvitationServiceImpl) GetInvitation(ctx context.Context, token string) (*domain.ReviewerInvitation, error) {
	const op = "internal.service.invitation.GetInvitation"

	inv, err := s.store.Invitations().GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inv, nil
}

// SubmitInvitationResponse records a reviewer's answer. Acceptance starts the
// review window and adds the reviewer to the manuscript.
func (s *InvitationServiceImpl) SubmitInvitationResponse(ctx context.Context, token string, resp workflow.InvitationResponse) (*domain.ReviewerInvitation, error) {
	const op = "internal.service.invitation.SubmitInvitationResponse"
	log := s.log.With(slog.String("op", op), slog.String("action", string(resp.Action)))

	windows, err := s.invitationWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.opts.Now()

	var (
		updated domain.ReviewerInvitation
		title   string
		stale   domain.ManuscriptStatus
	)

	err = s.transaction(ctx, op, func(tx repository.Store) error {
		current, err := tx.Invitations().GetByToken(ctx, token)
		if err != nil {
			return err
		}

		// Lock the manuscript before the invitation row, as ApplyEvent does.
		m, err := tx.Manuscripts().GetForUpdate(ctx, current.ManuscriptID)
		if err != nil {
			return err
		}

		if _, err := workflow.RespondToInvitation(*current, resp, windows, now); err != nil {
			return err
		}

		if !workflow.TakesReviewerResponses(m.Status) {
			stale = m.Status
			return s.closeStaleRows(ctx, tx, m)
		}

		applied, err := tx.Invitations().CompareAndSet(ctx, current.ID, domain.InvitationPending, func(inv *domain.ReviewerInvitation) error {
			next, err := workflow.RespondToInvitation(*inv, resp, windows, now)
			if err != nil {
				return err
			}

			*inv = next
			updated = next

			return nil
		})
		if err != nil {
			return err
		}

		if !applied {
			return apperrors.ErrAlreadyResponded
		}

		event := workflow.EventReviewerDeclined
		if updated.Status == domain.InvitationAccepted {
			event = workflow.EventReviewerAccepted

			if !m.HasReviewer(updated.ReviewerID) {
				m.ReviewerIDs = append(m.ReviewerIDs, updated.ReviewerID)
			}
		}

		next, err := workflow.Apply(m, event)
		if err != nil {
			return err
		}

		title = m.Title
		m.Status = next
		m.UpdatedAt = now

		return tx.Manuscripts().Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	if stale != "" {
		log.Info("invitation closed, manuscript no longer takes reviewer responses", slog.String("status", string(stale)))
		return nil, fmt.Errorf("%s: %w: manuscript is %s", op, apperrors.ErrExpired, stale)
	}

	log = log.With(slog.String("invitation_id", updated.ID))
	log.Info("invitation response recorded", slog.String("status", string(updated.Status)))

	vars := map[string]string{
		"manuscript_id":    updated.ManuscriptID,
		"manuscript_title": title,
		"reviewer_name":    updated.ReviewerName,
		"action":           string(resp.Action),
	}

	if updated.DeclineReason != nil {
		vars["decline_reason"] = *updated.DeclineReason
	}

	s.notify(ctx, log, notify.TemplateInvitationResponse, s.opts.EditorialOfficeEmail, vars)

	return &updated, nil
}

func (s *InvitationServiceImpl) SubmitReview(ctx context.Context, token string) (*domain.ReviewerInvitation, error) {
	const op = "internal.service.invitation.SubmitReview"

	now := s.opts.Now()

	current, err := s.store.Invitations().GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var updated domain.ReviewerInvitation

	applied, err := s.store.Invitations().CompareAndSet(ctx, current.ID, domain.InvitationAccepted, func(inv *domain.ReviewerInvitation) error {
		if inv.ReviewSubmittedAt != nil {
			return apperrors.ErrAlreadyResponded
		}

		inv.ReviewSubmittedAt = &now
		updated = *inv

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !applied {
		return nil, apperrors.ErrReviewNotAccepted
	}

	s.log.Info("review submitted",
		slog.String("op", op),
		slog.String("invitation_id", updated.ID),
		slog.Bool("late", updated.ReviewDeadline != nil && now.After(*updated.ReviewDeadline)),
	)

	return &updated, nil
}

func (s *InvitationServiceImpl) invitationWindows(ctx context.Context) (workflow.InvitationWindows, error) {
	invitation, err := s.policies.Get(ctx, policy.StageReviewerInvitation)
	if err != nil {
		return workflow.InvitationWindows{}, fmt.Errorf("failed to load invitation policy: %w", err)
	}

	review, err := s.policies.Get(ctx, policy.StageReviewerReview)
	if err != nil {
		return workflow.InvitationWindows{}, fmt.Errorf("failed to load review policy: %w", err)
	}

	return workflow.InvitationWindows{
		Grace:  invitation.Grace(),
		Review: review.TimeLimit,
	}, nil
}
