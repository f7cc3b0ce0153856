package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/service"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/YusovID/editorial-workflow/internal/validation"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

func (s *Server) PostManuscript(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostManuscript"

	var req submitManuscriptRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	m, err := s.manuscripts.SubmitManuscript(r.Context(), req.Title, req.AuthorID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]manuscriptResponse{"manuscript": toManuscriptResponse(m)})
}

func (s *Server) GetManuscript(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetManuscript"

	detail, err := s.manuscripts.GetManuscript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, toManuscriptDetailResponse(detail))
}

func (s *Server) PostManuscriptEvent(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostManuscriptEvent"

	var req applyEventRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	m, err := s.manuscripts.ApplyEvent(r.Context(), chi.URLParam(r, "id"), workflow.Event(req.Event))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]manuscriptResponse{"manuscript": toManuscriptResponse(m)})
}

func (s *Server) PostAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostAssignment"

	var req assignEditorRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	a, err := s.assignments.AssignEditor(r.Context(), service.AssignEditorInput{
		ManuscriptID: chi.URLParam(r, "id"),
		EditorID:     req.EditorID,
		EditorEmail:  req.EditorEmail,
		AssignedBy:   req.AssignedBy,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]assignmentResponse{"assignment": toAssignmentResponse(a)})
}

func (s *Server) PostAssignmentResponse(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostAssignmentResponse"

	var req assignmentResponseRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	a, err := s.assignments.SubmitAssignmentResponse(r.Context(), chi.URLParam(r, "id"), workflow.AssignmentResponse{
		Action:           domain.ResponseAction(req.Action),
		ConflictDeclared: req.ConflictDeclared,
		ConflictDetails:  req.ConflictDetails,
		DeclineReason:    req.DeclineReason,
		Comments:         req.Comments,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]assignmentResponse{"assignment": toAssignmentResponse(a)})
}

func (s *Server) PostInvitation(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostInvitation"

	var req inviteReviewerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	inv, err := s.invitations.InviteReviewer(r.Context(), service.InviteReviewerInput{
		ManuscriptID:  chi.URLParam(r, "id"),
		ReviewerID:    req.ReviewerID,
		ReviewerEmail: req.ReviewerEmail,
		ReviewerName:  req.ReviewerName,
		InvitedBy:     req.InvitedBy,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]invitationResponse{"invitation": toInvitationResponse(inv)})
}

func (s *Server) GetInvitation(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetInvitation"

	token, err := s.tokenParam(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	inv, err := s.invitations.GetInvitation(r.Context(), token)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]invitationResponse{"invitation": toInvitationResponse(inv)})
}

func (s *Server) PostInvitationResponse(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostInvitationResponse"

	token, err := s.tokenParam(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req invitationResponseRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	inv, err := s.invitations.SubmitInvitationResponse(r.Context(), token, workflow.InvitationResponse{
		Action:        domain.ResponseAction(req.Action),
		DeclineReason: req.DeclineReason,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]invitationResponse{"invitation": toInvitationResponse(inv)})
}

func (s *Server) PostReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostReview"

	token, err := s.tokenParam(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	inv, err := s.invitations.SubmitReview(r.Context(), token)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]invitationResponse{"invitation": toInvitationResponse(inv)})
}

func (s *Server) GetPolicy(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetPolicy"

	stage := chi.URLParam(r, "stage")
	if err := validation.ValidateVar("stage", stage, "stage"); err != nil {
		s.handleServiceError(w, r, op, apperrors.ErrNotFound)
		return
	}

	p, err := s.policies.Get(r.Context(), stage)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]policyResponse{"policy": toPolicyResponse(p)})
}

func (s *Server) PutPolicy(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PutPolicy"

	stage := chi.URLParam(r, "stage")
	if err := validation.ValidateVar("stage", stage, "stage"); err != nil {
		s.handleServiceError(w, r, op, apperrors.ErrNotFound)
		return
	}

	var req putPolicyRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	p, err := s.policies.Put(r.Context(), domain.WorkflowTimeLimit{
		Stage:          stage,
		TimeLimitDays:  req.TimeLimitDays,
		ReminderDays:   pq.Int64Array(req.ReminderDays),
		EscalationDays: pq.Int64Array(req.EscalationDays),
		IsActive:       *req.IsActive,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]policyResponse{"policy": toPolicyResponse(p)})
}

func (s *Server) PostSweepRun(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostSweepRun"

	ctx := sweep.WithTrigger(r.Context(), "http:"+requestIDFrom(r.Context()))

	res, err := s.sweeper.Trigger(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrSweepInProgress) {
			s.handleServiceError(w, r, op, err)
			return
		}

		// A pass failed outright; report what the other passes did.
		s.log.Error("sweep finished with pass failures", slog.String("op", op), sl.Err(err))
		s.respond(w, http.StatusServiceUnavailable, toSweepResponse(res))

		return
	}

	s.respond(w, http.StatusOK, toSweepResponse(res))
}

func (s *Server) tokenParam(r *http.Request) (string, error) {
	token := chi.URLParam(r, "token")

	if err := validation.ValidateVar("token", token, "token"); err != nil {
		return "", err
	}

	return token, nil
}
