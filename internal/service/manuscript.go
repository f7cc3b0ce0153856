package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ManuscriptService interface {
	SubmitManuscript(ctx context.Context, title, authorID string) (*domain.Manuscript, error)
	GetManuscript(ctx context.Context, id string) (*ManuscriptDetail, error)
	ApplyEvent(ctx context.Context, id string, event workflow.Event) (*domain.Manuscript, error)
}

// ManuscriptDetail is a manuscript together with its assignment and
// invitation history.
type ManuscriptDetail struct {
	Manuscript    domain.Manuscript
	Assignments   []domain.EditorAssignment
	Invitations   []domain.ReviewerInvitation
	AllowedEvents []workflow.Event
}

// externalEvents may be applied directly by authors and editors. The others
// are raised by assignment and invitation responses or by the sweep.
var externalEvents = map[workflow.Event]bool{
	workflow.EventSubmit:           true,
	workflow.EventScreen:           true,
	workflow.EventRequestReviewers: true,
	workflow.EventDecideAccept:     true,
	workflow.EventDecideReject:     true,
	workflow.EventDecideRevise:     true,
	workflow.EventSubmitRevision:   true,
	workflow.EventPublish:          true,
	workflow.EventWithdraw:         true,
}

type ManuscriptServiceImpl struct {
	BaseService
}

func NewManuscriptService(base BaseService) *ManuscriptServiceImpl {
	return &ManuscriptServiceImpl{BaseService: base}
}

func (s *ManuscriptServiceImpl) SubmitManuscript(ctx context.Context, title, authorID string) (*domain.Manuscript, error) {
	const op = "internal.service.manuscript.SubmitManuscript"

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	now := s.opts.Now()

	m := &domain.Manuscript{
		ID:          uuid.NewString(),
		Title:       title,
		AuthorID:    authorID,
		Status:      domain.StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
		ReviewerIDs: pq.StringArray{},
	}

	if err := s.store.Manuscripts().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("%s: failed to create manuscript: %w", op, err)
	}

	s.log.Info("manuscript submitted",
		slog.String("op", op),
		slog.String("manuscript_id", m.ID),
		slog.String("author_id", authorID),
	)

	return m, nil
}

func (s *ManuscriptServiceImpl) GetManuscript(ctx context.Context, id string) (*ManuscriptDetail, error) {
	const op = "internal.service.manuscript.GetManuscript"

	m, err := s.store.Manuscripts().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	assignments, err := s.store.Assignments().ListByManuscript(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list assignments: %w", op, err)
	}

	invitations, err := s.store.Invitations().ListByManuscript(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list invitations: %w", op, err)
	}

	return &ManuscriptDetail{
		Manuscript:    *m,
		Assignments:   assignments,
		Invitations:   invitations,
		AllowedEvents: workflow.Allowed(m.Status),
	}, nil
}

func (s *ManuscriptServiceImpl) ApplyEvent(ctx context.Context, id string, event workflow.Event) (*domain.Manuscript, error) {
	const op = "internal.service.manuscript.ApplyEvent"
	log := s.log.With(slog.String("op", op), slog.String("manuscript_id", id), slog.String("event", string(event)))

	if !externalEvents[event] {
		return nil, fmt.Errorf("%w: event '%s' cannot be applied directly", apperrors.ErrValidation, event)
	}

	var (
		m    *domain.Manuscript
		from domain.ManuscriptStatus
	)

	err := s.transaction(ctx, op, func(tx repository.Store) error {
		var err error

		m, err = tx.Manuscripts().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		next, err := workflow.Apply(m, event)
		if err != nil {
			return err
		}

		from = m.Status
		m.Status = next
		m.UpdatedAt = s.opts.Now()

		if err := tx.Manuscripts().Update(ctx, m); err != nil {
			return err
		}

		return s.closeStaleRows(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}

	log.Info("manuscript status changed", slog.String("from", string(from)), slog.String("to", string(m.Status)))

	return m, nil
}
