package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignmentServiceImpl_AssignEditor(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		status        domain.ManuscriptStatus
		setup         func(t *testing.T, env *testEnv, manuscriptID string)
		setupMocks    func(d *DispatcherMock)
		expectedError error
	}{
		{
			name:   "Success",
			status: domain.StatusAssociateEditorAssignment,
			setupMocks: func(d *DispatcherMock) {
				d.On("Dispatch", mock.Anything, notify.TemplateEditorAssignment, "editor@journal.test", mock.MatchedBy(func(vars map[string]string) bool {
					return vars["deadline"] == baseTime.Add(7*24*time.Hour).Format(deadlineLayout)
				})).Return("msg-1", nil).Once()
			},
		},
		{
			name:   "Dispatch failure does not fail the assignment",
			status: domain.StatusAssociateEditorAssignment,
			setupMocks: func(d *DispatcherMock) {
				d.On("Dispatch", mock.Anything, notify.TemplateEditorAssignment, "editor@journal.test", mock.Anything).
					Return("", errors.New("smtp down")).Once()
			},
		},
		{
			name:   "Pending assignment already exists",
			status: domain.StatusAssociateEditorAssignment,
			setup: func(t *testing.T, env *testEnv, manuscriptID string) {
				require.NoError(t, env.store.Assignments().Create(context.Background(), &domain.EditorAssignment{
					ID:           "existing",
					ManuscriptID: manuscriptID,
					EditorID:     "editor-0",
					AssignedAt:   baseTime.Add(-time.Hour),
					Deadline:     baseTime.Add(time.Hour),
					Status:       domain.AssignmentPending,
				}))
			},
			setupMocks:    func(d *DispatcherMock) {},
			expectedError: apperrors.ErrAssignmentPending,
		},
		{
			name:          "Manuscript not awaiting an editor",
			status:        domain.StatusSubmitted,
			setupMocks:    func(d *DispatcherMock) {},
			expectedError: apperrors.ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			tc.setupMocks(env.dispatcher)
			m := env.seedManuscript(t, tc.status, nil)

			if tc.setup != nil {
				tc.setup(t, env, m.ID)
			}

			svc := NewAssignmentService(env.base)

			a, err := svc.AssignEditor(ctx, AssignEditorInput{
				ManuscriptID: m.ID,
				EditorID:     "editor-1",
				EditorEmail:  "editor@journal.test",
				AssignedBy:   "office-1",
			})

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, a)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.AssignmentPending, a.Status)
			assert.Equal(t, baseTime.Add(7*24*time.Hour), a.Deadline)

			stored, err := env.store.Assignments().Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, a.Deadline, stored.Deadline)
		})
	}
}

func seedAssignment(t *testing.T, env *testEnv, manuscriptID string, deadline time.Time) *domain.EditorAssignment {
	t.Helper()

	a := &domain.EditorAssignment{
		ID:           "assignment-" + manuscriptID,
		ManuscriptID: manuscriptID,
		EditorID:     "editor-1",
		EditorEmail:  "editor@journal.test",
		AssignedBy:   "office-1",
		AssignedAt:   baseTime.Add(-24 * time.Hour),
		Deadline:     deadline,
		Status:       domain.AssignmentPending,
	}

	require.NoError(t, env.store.Assignments().Create(context.Background(), a))

	return a
}

func TestAssignmentServiceImpl_SubmitAssignmentResponse(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name             string
		deadline         time.Time
		resp             workflow.AssignmentResponse
		expectDispatch   bool
		expectedStatus   domain.AssignmentStatus
		expectedMStatus  domain.ManuscriptStatus
		expectedEditorID *string
		expectedError    error
	}{
		{
			name:             "Accept makes the responder the handling editor",
			deadline:         baseTime.Add(time.Hour),
			resp:             workflow.AssignmentResponse{Action: domain.ActionAccept, Comments: "happy to"},
			expectDispatch:   true,
			expectedStatus:   domain.AssignmentAccepted,
			expectedMStatus:  domain.StatusAssociateEditorReview,
			expectedEditorID: ptr("editor-1"),
		},
		{
			name:     "Decline with conflict",
			deadline: baseTime.Add(time.Hour),
			resp: workflow.AssignmentResponse{
				Action:           domain.ActionDecline,
				ConflictDeclared: true,
				ConflictDetails:  "co-author",
			},
			expectDispatch:  true,
			expectedStatus:  domain.AssignmentDeclined,
			expectedMStatus: domain.StatusAssociateEditorAssignment,
		},
		{
			name:     "Accept with declared conflict is refused",
			deadline: baseTime.Add(time.Hour),
			resp: workflow.AssignmentResponse{
				Action:           domain.ActionAccept,
				ConflictDeclared: true,
				ConflictDetails:  "co-author",
			},
			expectedStatus:  domain.AssignmentPending,
			expectedMStatus: domain.StatusAssociateEditorAssignment,
			expectedError:   apperrors.ErrConflictPreventsAcceptance,
		},
		{
			name:            "Decline without reason",
			deadline:        baseTime.Add(time.Hour),
			resp:            workflow.AssignmentResponse{Action: domain.ActionDecline},
			expectedStatus:  domain.AssignmentPending,
			expectedMStatus: domain.StatusAssociateEditorAssignment,
			expectedError:   apperrors.ErrValidation,
		},
		{
			name:            "Response after deadline",
			deadline:        baseTime.Add(-time.Second),
			resp:            workflow.AssignmentResponse{Action: domain.ActionAccept},
			expectedStatus:  domain.AssignmentPending,
			expectedMStatus: domain.StatusAssociateEditorAssignment,
			expectedError:   apperrors.ErrExpired,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			m := env.seedManuscript(t, domain.StatusAssociateEditorAssignment, nil)
			a := seedAssignment(t, env, m.ID, tc.deadline)

			if tc.expectDispatch {
				env.dispatcher.On("Dispatch", mock.Anything, notify.TemplateAssignmentResponse, officeEmail, mock.Anything).
					Return("msg-1", nil).Once()
			}

			svc := NewAssignmentService(env.base)

			_, err := svc.SubmitAssignmentResponse(ctx, a.ID, tc.resp)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}

			stored, err := env.store.Assignments().Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, stored.Status)
			assert.False(t, stored.ConflictDeclared && stored.Status == domain.AssignmentAccepted)

			storedM, err := env.store.Manuscripts().Get(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedMStatus, storedM.Status)
			assert.Equal(t, tc.expectedEditorID, storedM.EditorID)
		})
	}
}

func TestAssignmentServiceImpl_SubmitAssignmentResponse_Twice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := env.seedManuscript(t, domain.StatusAssociateEditorAssignment, nil)
	a := seedAssignment(t, env, m.ID, baseTime.Add(time.Hour))

	env.dispatcher.On("Dispatch", mock.Anything, notify.TemplateAssignmentResponse, officeEmail, mock.Anything).
		Return("msg-1", nil).Once()

	svc := NewAssignmentService(env.base)

	_, err := svc.SubmitAssignmentResponse(ctx, a.ID, workflow.AssignmentResponse{Action: domain.ActionDecline, DeclineReason: "on leave"})
	require.NoError(t, err)

	_, err = svc.SubmitAssignmentResponse(ctx, a.ID, workflow.AssignmentResponse{Action: domain.ActionAccept})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResponded)
}

func TestAssignmentServiceImpl_SubmitAssignmentResponse_ManuscriptMovedOn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := env.seedManuscript(t, domain.StatusWithdrawn, nil)
	a := seedAssignment(t, env, m.ID, baseTime.Add(day))
	svc := NewAssignmentService(env.base)

	_, err := svc.SubmitAssignmentResponse(ctx, a.ID, workflow.AssignmentResponse{Action: domain.ActionAccept})
	assert.ErrorIs(t, err, apperrors.ErrExpired)

	stored, err := env.store.Assignments().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentExpired, stored.Status)

	pending, err := env.store.Assignments().FindPending(ctx, baseTime.Add(30*day))
	require.NoError(t, err)
	assert.Empty(t, pending)
}
