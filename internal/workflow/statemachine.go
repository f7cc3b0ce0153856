// Package workflow holds the manuscript state machine and the validation
// rules for editor and reviewer responses. Everything here is pure: callers
// persist the results themselves.
package workflow

import (
	"fmt"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
)

type Event string

const (
	EventSubmit                  Event = "submit"
	EventScreen                  Event = "screen"
	EventAssignEditor            Event = "assign_editor"
	EventEditorAccepted          Event = "editor_accepted"
	EventEditorDeclined          Event = "editor_declined"
	EventEditorAssignmentExpired Event = "editor_assignment_expired"
	EventRequestReviewers        Event = "request_reviewers"
	EventAssignReviewer          Event = "assign_reviewer"
	EventReviewerAccepted        Event = "reviewer_accepted"
	EventReviewerDeclined        Event = "reviewer_declined"
	EventReviewerWithdrawn       Event = "reviewer_withdrawn"
	EventDecideAccept            Event = "decide_accept"
	EventDecideReject            Event = "decide_reject"
	EventDecideRevise            Event = "decide_revise"
	EventSubmitRevision          Event = "submit_revision"
	EventPublish                 Event = "publish"
	EventWithdraw                Event = "withdraw"
)

// AllEvents lists every event the state machine knows about.
var AllEvents = []Event{
	EventSubmit, EventScreen, EventAssignEditor, EventEditorAccepted, EventEditorDeclined,
	EventEditorAssignmentExpired, EventRequestReviewers, EventAssignReviewer, EventReviewerAccepted,
	EventReviewerDeclined, EventReviewerWithdrawn, EventDecideAccept, EventDecideReject,
	EventDecideRevise, EventSubmitRevision, EventPublish, EventWithdraw,
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
	DecisionRevise Decision = "revise"
)

// Decide maps an editorial decision to its event.
func Decide(d Decision) (Event, error) {
	switch d {
	case DecisionAccept:
		return EventDecideAccept, nil
	case DecisionReject:
		return EventDecideReject, nil
	case DecisionRevise:
		return EventDecideRevise, nil
	default:
		return "", fmt.Errorf("%w: unknown decision '%s'", apperrors.ErrValidation, d)
	}
}

type transitionKey struct {
	from  domain.ManuscriptStatus
	event Event
}

var transitions = buildTransitions()

func buildTransitions() map[transitionKey]domain.ManuscriptStatus {
	t := map[transitionKey]domain.ManuscriptStatus{
		{domain.StatusSubmitted, EventSubmit}:                                   domain.StatusEditorialAssistantReview,
		{domain.StatusEditorialAssistantReview, EventScreen}:                    domain.StatusAssociateEditorAssignment,
		{domain.StatusAssociateEditorAssignment, EventAssignEditor}:             domain.StatusAssociateEditorAssignment,
		{domain.StatusAssociateEditorAssignment, EventEditorAccepted}:           domain.StatusAssociateEditorReview,
		{domain.StatusAssociateEditorAssignment, EventEditorDeclined}:           domain.StatusAssociateEditorAssignment,
		{domain.StatusAssociateEditorAssignment, EventEditorAssignmentExpired}:  domain.StatusAssociateEditorAssignment,
		{domain.StatusAssociateEditorReview, EventRequestReviewers}:             domain.StatusReviewerAssignment,
		{domain.StatusRevisionSubmitted, EventRequestReviewers}:                 domain.StatusReviewerAssignment,
		{domain.StatusReviewerAssignment, EventAssignReviewer}:                  domain.StatusReviewerAssignment,
		{domain.StatusUnderReview, EventAssignReviewer}:                         domain.StatusUnderReview,
		{domain.StatusReviewerAssignment, EventReviewerAccepted}:                domain.StatusUnderReview,
		{domain.StatusUnderReview, EventReviewerAccepted}:                       domain.StatusUnderReview,
		{domain.StatusReviewerAssignment, EventReviewerDeclined}:                domain.StatusReviewerAssignment,
		{domain.StatusUnderReview, EventReviewerDeclined}:                       domain.StatusUnderReview,
		{domain.StatusReviewerAssignment, EventReviewerWithdrawn}:               domain.StatusReviewerAssignment,
		{domain.StatusUnderReview, EventReviewerWithdrawn}:                      domain.StatusUnderReview,
		{domain.StatusUnderReview, EventDecideAccept}:                           domain.StatusAccepted,
		{domain.StatusUnderReview, EventDecideReject}:                           domain.StatusRejected,
		{domain.StatusUnderReview, EventDecideRevise}:                           domain.StatusRevisionRequested,
		{domain.StatusRevisionSubmitted, EventDecideAccept}:                     domain.StatusAccepted,
		{domain.StatusRevisionSubmitted, EventDecideReject}:                     domain.StatusRejected,
		{domain.StatusRevisionSubmitted, EventDecideRevise}:                     domain.StatusRevisionRequested,
		{domain.StatusRevisionRequested, EventSubmitRevision}:                   domain.StatusRevisionSubmitted,
		{domain.StatusAccepted, EventPublish}:                                   domain.StatusPublished,
	}

	for _, s := range preDecision {
		t[transitionKey{s, EventWithdraw}] = domain.StatusWithdrawn
	}

	return t
}

// preDecision are the statuses from which an author may withdraw.
var preDecision = []domain.ManuscriptStatus{
	domain.StatusSubmitted,
	domain.StatusEditorialAssistantReview,
	domain.StatusAssociateEditorAssignment,
	domain.StatusAssociateEditorReview,
	domain.StatusReviewerAssignment,
	domain.StatusUnderReview,
	domain.StatusRevisionRequested,
	domain.StatusRevisionSubmitted,
}

// Apply returns the status the manuscript moves to on event. Any pair missing
// from the table yields a *apperrors.TransitionError.
func Apply(m *domain.Manuscript, event Event) (domain.ManuscriptStatus, error) {
	if m == nil {
		return "", fmt.Errorf("%w: nil manuscript", apperrors.ErrValidation)
	}

	next, ok := transitions[transitionKey{m.Status, event}]
	if !ok {
		return "", &apperrors.TransitionError{From: string(m.Status), Event: string(event)}
	}

	if next == domain.StatusUnderReview && !m.HasEditor() {
		return "", fmt.Errorf("%w: manuscript '%s' cannot enter %s", apperrors.ErrEditorRequired, m.ID, next)
	}

	return next, nil
}

// Allowed lists the events accepted in status, in declaration order.
func Allowed(status domain.ManuscriptStatus) []Event {
	var events []Event

	for _, e := range AllEvents {
		if _, ok := transitions[transitionKey{status, e}]; ok {
			events = append(events, e)
		}
	}

	return events
}

// Accepts reports whether event is defined for status.
func Accepts(status domain.ManuscriptStatus, event Event) bool {
	_, ok := transitions[transitionKey{status, event}]
	return ok
}

// TakesEditorResponses reports whether a manuscript in status still waits
// on editor assignments.
func TakesEditorResponses(status domain.ManuscriptStatus) bool {
	return Accepts(status, EventEditorDeclined)
}

// TakesReviewerResponses reports whether a manuscript in status still waits
// on reviewer invitations.
func TakesReviewerResponses(status domain.ManuscriptStatus) bool {
	return Accepts(status, EventReviewerDeclined)
}
