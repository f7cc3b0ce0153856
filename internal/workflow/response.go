package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
)

type AssignmentResponse struct {
	Action           domain.ResponseAction
	ConflictDeclared bool
	ConflictDetails  string
	DeclineReason    string
	Comments         string
}

type InvitationResponse struct {
	Action        domain.ResponseAction
	DeclineReason string
}

// InvitationWindows are the policy durations a reviewer response is judged
// against.
type InvitationWindows struct {
	// Grace extends the response deadline from the first reminder.
	Grace time.Duration
	// Review is how long an accepted reviewer has to submit the review.
	Review time.Duration
}

// RespondToAssignment validates an editor's response and returns the updated
// copy of the assignment. The input is never modified.
func RespondToAssignment(a domain.EditorAssignment, resp AssignmentResponse, now time.Time) (domain.EditorAssignment, error) {
	if a.Status == domain.AssignmentExpired {
		return a, apperrors.ErrExpired
	}

	if a.Status != domain.AssignmentPending {
		return a, apperrors.ErrAlreadyResponded
	}

	if now.After(a.Deadline) {
		return a, apperrors.ErrExpired
	}

	if resp.Action != domain.ActionAccept && resp.Action != domain.ActionDecline {
		return a, fmt.Errorf("%w: '%s'", apperrors.ErrUnknownAction, resp.Action)
	}

	details := strings.TrimSpace(resp.ConflictDetails)
	reason := strings.TrimSpace(resp.DeclineReason)

	if resp.ConflictDeclared && resp.Action == domain.ActionAccept {
		return a, apperrors.ErrConflictPreventsAcceptance
	}

	if resp.ConflictDeclared && details == "" {
		return a, apperrors.ErrMissingConflictDetails
	}

	if resp.Action == domain.ActionDecline && !resp.ConflictDeclared && reason == "" {
		return a, apperrors.ErrMissingDeclineReason
	}

	updated := a
	updated.ResponseAt = &now
	updated.ConflictDeclared = resp.ConflictDeclared
	updated.ConflictDetails = optional(details)
	updated.DeclineReason = optional(reason)
	updated.Comments = optional(strings.TrimSpace(resp.Comments))

	if resp.Action == domain.ActionAccept {
		updated.Status = domain.AssignmentAccepted
	} else {
		updated.Status = domain.AssignmentDeclined
	}

	return updated, nil
}

// InvitationDeadline is the instant after which a reviewer can no longer
// respond. Once reminded, the reviewer gets the grace window quoted in the
// reminder.
func InvitationDeadline(inv domain.ReviewerInvitation, grace time.Duration) time.Time {
	if inv.FirstReminderSent != nil {
		extended := inv.FirstReminderSent.Add(grace)
		if extended.After(inv.ResponseDeadline) {
			return extended
		}
	}

	return inv.ResponseDeadline
}

// RespondToInvitation validates a reviewer's response and returns the updated
// copy of the invitation. Acceptance starts the review window.
func RespondToInvitation(inv domain.ReviewerInvitation, resp InvitationResponse, w InvitationWindows, now time.Time) (domain.ReviewerInvitation, error) {
	if inv.Status == domain.InvitationExpired {
		return inv, apperrors.ErrExpired
	}

	if inv.Status != domain.InvitationPending {
		return inv, apperrors.ErrAlreadyResponded
	}

	if now.After(InvitationDeadline(inv, w.Grace)) {
		return inv, apperrors.ErrExpired
	}

	reason := strings.TrimSpace(resp.DeclineReason)

	updated := inv
	updated.ResponseAt = &now

	switch resp.Action {
	case domain.ActionAccept:
		reviewDeadline := now.Add(w.Review)
		updated.Status = domain.InvitationAccepted
		updated.ReviewDeadline = &reviewDeadline
	case domain.ActionDecline:
		if reason == "" {
			return inv, apperrors.ErrMissingDeclineReason
		}

		updated.Status = domain.InvitationDeclined
		updated.DeclineReason = &reason
	default:
		return inv, fmt.Errorf("%w: '%s'", apperrors.ErrUnknownAction, resp.Action)
	}

	return updated, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
