package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/google/uuid"
)

type AssignEditorInput struct {
	ManuscriptID string
	EditorID     string
	EditorEmail  string
	AssignedBy   string
}

type AssignmentService interface {
	AssignEditor(ctx context.Context, in AssignEditorInput) (*domain.EditorAssignment, error)
	SubmitAssignmentResponse(ctx context.Context, assignmentID string, resp workflow.AssignmentResponse) (*domain.EditorAssignment, error)
}

type AssignmentServiceImpl struct {
	BaseService
}

func NewAssignmentService(base BaseService) *AssignmentServiceImpl {
	return &AssignmentServiceImpl{BaseService: base}
}

// AssignEditor opens an assignment with a deadline taken from the
// editor_assignment policy. A manuscript has at most one pending assignment.
func (s *AssignmentServiceImpl) AssignEditor(ctx context.Context, in AssignEditorInput) (*domain.EditorAssignment, error) {
	const op = "internal.service.assignment.AssignEditor"
	log := s.log.With(slog.String("op", op), slog.String("manuscript_id", in.ManuscriptID), slog.String("editor_id", in.EditorID))

	pol, err := s.policies.Get(ctx, policy.StageEditorAssignment)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load policy: %w", op, err)
	}

	now := s.opts.Now()

	a := &domain.EditorAssignment{
		ID:           uuid.NewString(),
		ManuscriptID: in.ManuscriptID,
		EditorID:     in.EditorID,
		EditorEmail:  in.EditorEmail,
		AssignedBy:   in.AssignedBy,
		AssignedAt:   now,
		Deadline:     now.Add(pol.TimeLimit),
		Status:       domain.AssignmentPending,
	}

	var title string

	err = s.transaction(ctx, op, func(tx repository.Store) error {
		m, err := tx.Manuscripts().GetForUpdate(ctx, in.ManuscriptID)
		if err != nil {
			return err
		}

		if _, err := workflow.Apply(m, workflow.EventAssignEditor); err != nil {
			return err
		}

		existing, err := tx.Assignments().ListByManuscript(ctx, in.ManuscriptID)
		if err != nil {
			return err
		}

		for _, e := range existing {
			if e.Status == domain.AssignmentPending {
				return apperrors.ErrAssignmentPending
			}
		}

		if err := tx.Assignments().Create(ctx, a); err != nil {
			return err
		}

		title = m.Title
		m.UpdatedAt = now

		return tx.Manuscripts().Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	log.Info("editor assigned", slog.String("assignment_id", a.ID), slog.Time("deadline", a.Deadline))

	s.notify(ctx, log, notify.TemplateEditorAssignment, a.EditorEmail, map[string]string{
		"manuscript_id":    a.ManuscriptID,
		"manuscript_title": title,
		"editor_id":        a.EditorID,
		"deadline":         a.Deadline.Format(deadlineLayout),
	})

	return a, nil
}

// SubmitAssignmentResponse records an editor's answer and moves the
// manuscript accordingly: acceptance makes the responder the handling editor.
func (s *AssignmentServiceImpl) SubmitAssignmentResponse(ctx context.Context, assignmentID string, resp workflow.AssignmentResponse) (*domain.EditorAssignment, error) {
	const op = "internal.service.assignment.SubmitAssignmentResponse"
	log := s.log.With(slog.String("op", op), slog.String("assignment_id", assignmentID), slog.String("action", string(resp.Action)))

	now := s.opts.Now()

	var (
		updated domain.EditorAssignment
		title   string
		stale   domain.ManuscriptStatus
	)

	err := s.transaction(ctx, op, func(tx repository.Store) error {
		current, err := tx.Assignments().Get(ctx, assignmentID)
		if err != nil {
			return err
		}

		m, err := tx.Manuscripts().GetForUpdate(ctx, current.ManuscriptID)
		if err != nil {
			return err
		}

		// Validate against the loaded row for a precise error, then again
		// inside the CAS against whatever is current.
		if _, err := workflow.RespondToAssignment(*current, resp, now); err != nil {
			return err
		}

		if !workflow.TakesEditorResponses(m.Status) {
			stale = m.Status
			return s.closeStaleRows(ctx, tx, m)
		}

		applied, err := tx.Assignments().CompareAndSet(ctx, assignmentID, domain.AssignmentPending, func(a *domain.EditorAssignment) error {
			next, err := workflow.RespondToAssignment(*a, resp, now)
			if err != nil {
				return err
			}

			*a = next
			updated = next

			return nil
		})
		if err != nil {
			return err
		}

		if !applied {
			return apperrors.ErrAlreadyResponded
		}

		event := workflow.EventEditorDeclined
		if updated.Status == domain.AssignmentAccepted {
			event = workflow.EventEditorAccepted
			editorID := updated.EditorID
			m.EditorID = &editorID
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
		log.Info("assignment closed, manuscript no longer takes editor responses", slog.String("status", string(stale)))
		return nil, fmt.Errorf("%s: %w: manuscript is %s", op, apperrors.ErrExpired, stale)
	}

	log.Info("assignment response recorded", slog.String("status", string(updated.Status)))

	vars := map[string]string{
		"manuscript_id":    updated.ManuscriptID,
		"manuscript_title": title,
		"editor_id":        updated.EditorID,
		"action":           string(resp.Action),
	}

	if updated.ConflictDetails != nil {
		vars["conflict_details"] = *updated.ConflictDetails
	}

	if updated.DeclineReason != nil {
		vars["decline_reason"] = *updated.DeclineReason
	}

	s.notify(ctx, log, notify.TemplateAssignmentResponse, s.opts.EditorialOfficeEmail, vars)

	return &updated, nil
}
