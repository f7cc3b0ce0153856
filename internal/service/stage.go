package service

import (
	"context"
	"log/slog"

	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/workflow"
)

// closeStaleRows expires the pending assignments and invitations of m that
// its current status no longer takes responses for. It must run in the
// transaction that holds the manuscript lock.
func (s *BaseService) closeStaleRows(ctx context.Context, tx repository.Store, m *domain.Manuscript) error {
	var assignments, invitations int

	if !workflow.TakesEditorResponses(m.Status) {
		rows, err := tx.Assignments().ListByManuscript(ctx, m.ID)
		if err != nil {
			return err
		}

		for _, a := range rows {
			if a.Status != domain.AssignmentPending {
				continue
			}

			expired, err := tx.Assignments().CompareAndSet(ctx, a.ID, domain.AssignmentPending, func(r *domain.EditorAssignment) error {
				r.Status = domain.AssignmentExpired
				return nil
			})
			if err != nil {
				return err
			}

			if expired {
				assignments++
			}
		}
	}

	if !workflow.TakesReviewerResponses(m.Status) {
		rows, err := tx.Invitations().ListByManuscript(ctx, m.ID)
		if err != nil {
			return err
		}

		for _, inv := range rows {
			if inv.Status != domain.InvitationPending {
				continue
			}

			expired, err := tx.Invitations().CompareAndSet(ctx, inv.ID, domain.InvitationPending, func(r *domain.ReviewerInvitation) error {
				r.Status = domain.InvitationExpired
				return nil
			})
			if err != nil {
				return err
			}

			if expired {
				invitations++
			}
		}
	}

	if assignments+invitations > 0 {
		s.log.Info("closed pending rows of manuscript",
			slog.String("manuscript_id", m.ID),
			slog.String("status", string(m.Status)),
			slog.Int("assignments", assignments),
			slog.Int("invitations", invitations),
		)
	}

	return nil
}
