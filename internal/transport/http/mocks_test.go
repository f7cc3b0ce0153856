package http

import (
	"context"

	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/service"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/stretchr/testify/mock"
)

type ManuscriptServiceMock struct {
	mock.Mock
}

var _ service.ManuscriptService = (*ManuscriptServiceMock)(nil)

func (m *ManuscriptServiceMock) SubmitManuscript(ctx context.Context, title, authorID string) (*domain.Manuscript, error) {
	args := m.Called(ctx, title, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Manuscript), args.Error(1)
}

func (m *ManuscriptServiceMock) GetManuscript(ctx context.Context, id string) (*service.ManuscriptDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.ManuscriptDetail), args.Error(1)
}

func (m *ManuscriptServiceMock) ApplyEvent(ctx context.Context, id string, event workflow.Event) (*domain.Manuscript, error) {
	args := m.Called(ctx, id, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Manuscript), args.Error(1)
}

type AssignmentServiceMock struct {
	mock.Mock
}

var _ service.AssignmentService = (*AssignmentServiceMock)(nil)

func (m *AssignmentServiceMock) AssignEditor(ctx context.Context, in service.AssignEditorInput) (*domain.EditorAssignment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.EditorAssignment), args.Error(1)
}

func (m *AssignmentServiceMock) SubmitAssignmentResponse(ctx context.Context, assignmentID string, resp workflow.AssignmentResponse) (*domain.EditorAssignment, error) {
	args := m.Called(ctx, assignmentID, resp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.EditorAssignment), args.Error(1)
}

type InvitationServiceMock struct {
	mock.Mock
}

var _ service.InvitationService = (*InvitationServiceMock)(nil)

func (m *InvitationServiceMock) InviteReviewer(ctx context.Context, in service.InviteReviewerInput) (*domain.ReviewerInvitation, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewerInvitation), args.Error(1)
}

func (m *InvitationServiceMock) GetInvitation(ctx context.Context, token string) (*domain.ReviewerInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewerInvitation), args.Error(1)
}

func (m *InvitationServiceMock) SubmitInvitationResponse(ctx context.Context, token string, resp workflow.InvitationResponse) (*domain.ReviewerInvitation, error) {
	args := m.Called(ctx, token, resp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewerInvitation), args.Error(1)
}

func (m *InvitationServiceMock) SubmitReview(ctx context.Context, token string) (*domain.ReviewerInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewerInvitation), args.Error(1)
}

type PolicyStoreMock struct {
	mock.Mock
}

var _ PolicyStore = (*PolicyStoreMock)(nil)

func (m *PolicyStoreMock) Get(ctx context.Context, stage string) (policy.Policy, error) {
	args := m.Called(ctx, stage)
	return args.Get(0).(policy.Policy), args.Error(1)
}

func (m *PolicyStoreMock) Put(ctx context.Context, tl domain.WorkflowTimeLimit) (policy.Policy, error) {
	args := m.Called(ctx, tl)
	return args.Get(0).(policy.Policy), args.Error(1)
}

type SweepTriggerMock struct {
	mock.Mock
}

var _ SweepTrigger = (*SweepTriggerMock)(nil)

func (m *SweepTriggerMock) Trigger(ctx context.Context) (sweep.Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(sweep.Result), args.Error(1)
}
