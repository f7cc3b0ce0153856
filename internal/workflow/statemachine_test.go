package workflow

import (
	"testing"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name          string
		status        domain.ManuscriptStatus
		editorID      *string
		event         Event
		expected      domain.ManuscriptStatus
		expectedError error
	}{
		{
			name:     "Submit",
			status:   domain.StatusSubmitted,
			event:    EventSubmit,
			expected: domain.StatusEditorialAssistantReview,
		},
		{
			name:     "Editor accepted",
			status:   domain.StatusAssociateEditorAssignment,
			event:    EventEditorAccepted,
			expected: domain.StatusAssociateEditorReview,
		},
		{
			name:     "Expired assignment returns to the queue",
			status:   domain.StatusAssociateEditorAssignment,
			event:    EventEditorAssignmentExpired,
			expected: domain.StatusAssociateEditorAssignment,
		},
		{
			name:     "First reviewer acceptance",
			status:   domain.StatusReviewerAssignment,
			editorID: ptr("editor-1"),
			event:    EventReviewerAccepted,
			expected: domain.StatusUnderReview,
		},
		{
			name:          "Reviewer acceptance without editor",
			status:        domain.StatusReviewerAssignment,
			event:         EventReviewerAccepted,
			expectedError: apperrors.ErrEditorRequired,
		},
		{
			name:     "Decide accept",
			status:   domain.StatusUnderReview,
			editorID: ptr("editor-1"),
			event:    EventDecideAccept,
			expected: domain.StatusAccepted,
		},
		{
			name:          "Reject after accept",
			status:        domain.StatusAccepted,
			event:         EventDecideReject,
			expectedError: apperrors.ErrInvalidTransition,
		},
		{
			name:     "Revision cycle",
			status:   domain.StatusRevisionSubmitted,
			event:    EventRequestReviewers,
			expected: domain.StatusReviewerAssignment,
		},
		{
			name:     "Publish",
			status:   domain.StatusAccepted,
			event:    EventPublish,
			expected: domain.StatusPublished,
		},
		{
			name:          "Unknown event",
			status:        domain.StatusSubmitted,
			event:         Event("teleport"),
			expectedError: apperrors.ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &domain.Manuscript{ID: "m-1", Status: tc.status, EditorID: tc.editorID}

			next, err := Apply(m, tc.event)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.ErrorIs(t, err, apperrors.ErrConflict)
				assert.Empty(t, next)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, next)
			assert.Equal(t, tc.status, m.Status, "Apply must not mutate the manuscript")
		})
	}
}

func TestApply_DecideThenDecideAgain(t *testing.T) {
	m := &domain.Manuscript{ID: "m-1", Status: domain.StatusUnderReview, EditorID: ptr("editor-1")}

	event, err := Decide(DecisionAccept)
	require.NoError(t, err)

	next, err := Apply(m, event)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, next)

	m.Status = next

	event, err = Decide(DecisionReject)
	require.NoError(t, err)

	_, err = Apply(m, event)

	var terr *apperrors.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, string(domain.StatusAccepted), terr.From)
	assert.Equal(t, string(EventDecideReject), terr.Event)
}

// Every pair outside the table must be rejected as an invalid transition.
func TestApply_TotalOverAllPairs(t *testing.T) {
	for _, status := range domain.AllStatuses {
		allowed := make(map[Event]bool)
		for _, e := range Allowed(status) {
			allowed[e] = true
		}

		for _, event := range AllEvents {
			m := &domain.Manuscript{ID: "m-1", Status: status, EditorID: ptr("editor-1")}

			next, err := Apply(m, event)

			if allowed[event] {
				assert.NoError(t, err, "%s + %s", status, event)
				assert.NotEmpty(t, next)

				continue
			}

			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "%s + %s", status, event)
		}
	}
}

func TestApply_TerminalStatusesAcceptNothing(t *testing.T) {
	for _, status := range domain.AllStatuses {
		if status == domain.StatusAccepted {
			assert.Equal(t, []Event{EventPublish}, Allowed(status))
			continue
		}

		if status.IsTerminal() {
			assert.Empty(t, Allowed(status), status)
		}
	}
}

func TestApply_NilManuscript(t *testing.T) {
	_, err := Apply(nil, EventSubmit)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDecide(t *testing.T) {
	_, err := Decide(Decision("maybe"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	event, err := Decide(DecisionRevise)
	require.NoError(t, err)
	assert.Equal(t, EventDecideRevise, event)
}

func TestResponseStages(t *testing.T) {
	testCases := []struct {
		status    domain.ManuscriptStatus
		editors   bool
		reviewers bool
	}{
		{status: domain.StatusAssociateEditorAssignment, editors: true},
		{status: domain.StatusAssociateEditorReview},
		{status: domain.StatusReviewerAssignment, reviewers: true},
		{status: domain.StatusUnderReview, reviewers: true},
		{status: domain.StatusRevisionRequested},
		{status: domain.StatusAccepted},
		{status: domain.StatusWithdrawn},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.editors, TakesEditorResponses(tc.status))
			assert.Equal(t, tc.reviewers, TakesReviewerResponses(tc.status))
		})
	}
}
