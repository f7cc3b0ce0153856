package workflow

import (
	"testing"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func pendingAssignment() domain.EditorAssignment {
	return domain.EditorAssignment{
		ID:           "a-1",
		ManuscriptID: "m-1",
		EditorID:     "editor-1",
		AssignedAt:   now.Add(-48 * time.Hour),
		Deadline:     now.Add(time.Hour),
		Status:       domain.AssignmentPending,
	}
}

func TestRespondToAssignment(t *testing.T) {
	testCases := []struct {
		name           string
		assignment     func() domain.EditorAssignment
		resp           AssignmentResponse
		expectedStatus domain.AssignmentStatus
		expectedError  error
	}{
		{
			name:           "Accept",
			assignment:     pendingAssignment,
			resp:           AssignmentResponse{Action: domain.ActionAccept},
			expectedStatus: domain.AssignmentAccepted,
		},
		{
			name:           "Decline with reason",
			assignment:     pendingAssignment,
			resp:           AssignmentResponse{Action: domain.ActionDecline, DeclineReason: "travelling"},
			expectedStatus: domain.AssignmentDeclined,
		},
		{
			name:       "Decline with conflict needs no reason",
			assignment: pendingAssignment,
			resp: AssignmentResponse{
				Action:           domain.ActionDecline,
				ConflictDeclared: true,
				ConflictDetails:  "co-author",
			},
			expectedStatus: domain.AssignmentDeclined,
		},
		{
			name:       "Accept with conflict",
			assignment: pendingAssignment,
			resp: AssignmentResponse{
				Action:           domain.ActionAccept,
				ConflictDeclared: true,
				ConflictDetails:  "co-author",
			},
			expectedError: apperrors.ErrConflictPreventsAcceptance,
		},
		{
			name:       "Conflict without details",
			assignment: pendingAssignment,
			resp: AssignmentResponse{
				Action:           domain.ActionDecline,
				ConflictDeclared: true,
				ConflictDetails:  "  ",
			},
			expectedError: apperrors.ErrMissingConflictDetails,
		},
		{
			name:          "Decline without reason",
			assignment:    pendingAssignment,
			resp:          AssignmentResponse{Action: domain.ActionDecline},
			expectedError: apperrors.ErrMissingDeclineReason,
		},
		{
			name:          "Unknown action",
			assignment:    pendingAssignment,
			resp:          AssignmentResponse{Action: "maybe"},
			expectedError: apperrors.ErrUnknownAction,
		},
		{
			name: "Past deadline",
			assignment: func() domain.EditorAssignment {
				a := pendingAssignment()
				a.Deadline = now.Add(-time.Second)

				return a
			},
			resp:          AssignmentResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrExpired,
		},
		{
			name: "Already responded",
			assignment: func() domain.EditorAssignment {
				a := pendingAssignment()
				a.Status = domain.AssignmentDeclined
				a.ResponseAt = &now

				return a
			},
			resp:          AssignmentResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrAlreadyResponded,
		},
		{
			name: "Expired assignment",
			assignment: func() domain.EditorAssignment {
				a := pendingAssignment()
				a.Status = domain.AssignmentExpired

				return a
			},
			resp:          AssignmentResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrExpired,
		},
		{
			name: "Exactly at deadline is accepted",
			assignment: func() domain.EditorAssignment {
				a := pendingAssignment()
				a.Deadline = now

				return a
			},
			resp:           AssignmentResponse{Action: domain.ActionAccept},
			expectedStatus: domain.AssignmentAccepted,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := tc.assignment()

			updated, err := RespondToAssignment(original, tc.resp, now)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Equal(t, original, updated)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, updated.Status)
			require.NotNil(t, updated.ResponseAt)
			assert.Equal(t, now, *updated.ResponseAt)
			assert.NoError(t, updated.Validate())
			assert.False(t, updated.ConflictDeclared && updated.Status == domain.AssignmentAccepted)
		})
	}
}

func pendingInvitation() domain.ReviewerInvitation {
	invitedAt := now.Add(-3 * 24 * time.Hour)

	return domain.ReviewerInvitation{
		ID:               "inv-1",
		ManuscriptID:     "m-1",
		ReviewerID:       "reviewer-1",
		InvitedAt:        invitedAt,
		ResponseDeadline: invitedAt.Add(7 * 24 * time.Hour),
		Status:           domain.InvitationPending,
		InvitationToken:  "token",
	}
}

var windows = InvitationWindows{Grace: 7 * 24 * time.Hour, Review: 21 * 24 * time.Hour}

func TestRespondToInvitation(t *testing.T) {
	testCases := []struct {
		name           string
		invitation     func() domain.ReviewerInvitation
		resp           InvitationResponse
		expectedStatus domain.InvitationStatus
		expectedError  error
	}{
		{
			name:           "Accept",
			invitation:     pendingInvitation,
			resp:           InvitationResponse{Action: domain.ActionAccept},
			expectedStatus: domain.InvitationAccepted,
		},
		{
			name:           "Decline",
			invitation:     pendingInvitation,
			resp:           InvitationResponse{Action: domain.ActionDecline, DeclineReason: "no time"},
			expectedStatus: domain.InvitationDeclined,
		},
		{
			name:          "Decline without reason",
			invitation:    pendingInvitation,
			resp:          InvitationResponse{Action: domain.ActionDecline, DeclineReason: " "},
			expectedError: apperrors.ErrMissingDeclineReason,
		},
		{
			name:          "Unknown action",
			invitation:    pendingInvitation,
			resp:          InvitationResponse{Action: "later"},
			expectedError: apperrors.ErrUnknownAction,
		},
		{
			name: "Past deadline without reminder",
			invitation: func() domain.ReviewerInvitation {
				inv := pendingInvitation()
				inv.ResponseDeadline = now.Add(-time.Minute)

				return inv
			},
			resp:          InvitationResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrExpired,
		},
		{
			name: "Past deadline but inside reminder grace",
			invitation: func() domain.ReviewerInvitation {
				inv := pendingInvitation()
				inv.ResponseDeadline = now.Add(-time.Minute)
				inv.FirstReminderSent = ptr(now.Add(-24 * time.Hour))

				return inv
			},
			resp:           InvitationResponse{Action: domain.ActionAccept},
			expectedStatus: domain.InvitationAccepted,
		},
		{
			name: "Withdrawn",
			invitation: func() domain.ReviewerInvitation {
				inv := pendingInvitation()
				inv.Status = domain.InvitationWithdrawn
				inv.FirstReminderSent = ptr(now.Add(-8 * 24 * time.Hour))
				inv.WithdrawnAt = ptr(now.Add(-time.Hour))

				return inv
			},
			resp:          InvitationResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrAlreadyResponded,
		},
		{
			name: "Expired invitation",
			invitation: func() domain.ReviewerInvitation {
				inv := pendingInvitation()
				inv.Status = domain.InvitationExpired

				return inv
			},
			resp:          InvitationResponse{Action: domain.ActionAccept},
			expectedError: apperrors.ErrExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := tc.invitation()

			updated, err := RespondToInvitation(original, tc.resp, windows, now)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Equal(t, original, updated)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, updated.Status)
			assert.NoError(t, updated.Validate())

			if updated.Status == domain.InvitationAccepted {
				require.NotNil(t, updated.ReviewDeadline)
				assert.Equal(t, now.Add(windows.Review), *updated.ReviewDeadline)
			}
		})
	}
}

func TestInvitationDeadline(t *testing.T) {
	inv := pendingInvitation()
	assert.Equal(t, inv.ResponseDeadline, InvitationDeadline(inv, windows.Grace))

	// A reminder sent before the deadline cannot shorten it.
	inv.FirstReminderSent = ptr(inv.InvitedAt)
	assert.Equal(t, inv.ResponseDeadline, InvitationDeadline(inv, time.Hour))

	reminded := inv.ResponseDeadline.Add(24 * time.Hour)
	inv.FirstReminderSent = &reminded
	assert.Equal(t, reminded.Add(windows.Grace), InvitationDeadline(inv, windows.Grace))
}
