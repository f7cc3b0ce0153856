package domain

import (
	"fmt"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
)

// Validate re-checks the row-level invariants of an editor assignment before
// it is written.
func (a *EditorAssignment) Validate() error {
	if a.ConflictDeclared && a.Status == AssignmentAccepted {
		return fmt.Errorf("%w: assignment '%s' is accepted with a declared conflict", apperrors.ErrInvariantViolation, a.ID)
	}

	if a.Status != AssignmentPending && a.Status != AssignmentExpired && a.ResponseAt == nil {
		return fmt.Errorf("%w: assignment '%s' is %s without a response time", apperrors.ErrInvariantViolation, a.ID, a.Status)
	}

	return nil
}

// Validate re-checks the row-level invariants of a reviewer invitation before
// it is written.
func (i *ReviewerInvitation) Validate() error {
	if i.WithdrawnAt != nil && i.Status != InvitationWithdrawn {
		return fmt.Errorf("%w: invitation '%s' has withdrawn_at but status %s", apperrors.ErrInvariantViolation, i.ID, i.Status)
	}

	if i.Status == InvitationWithdrawn {
		if i.WithdrawnAt == nil {
			return fmt.Errorf("%w: invitation '%s' is withdrawn without withdrawn_at", apperrors.ErrInvariantViolation, i.ID)
		}

		if i.FirstReminderSent == nil {
			return fmt.Errorf("%w: invitation '%s' withdrawn before any reminder", apperrors.ErrInvariantViolation, i.ID)
		}
	}

	accepted := i.Status == InvitationAccepted
	if accepted != (i.ReviewDeadline != nil) {
		return fmt.Errorf("%w: invitation '%s' review deadline does not match status %s", apperrors.ErrInvariantViolation, i.ID, i.Status)
	}

	return nil
}
