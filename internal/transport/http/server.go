// Package http exposes the editorial workflow over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/service"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/YusovID/editorial-workflow/internal/validation"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PolicyStore interface {
	Get(ctx context.Context, stage string) (policy.Policy, error)
	Put(ctx context.Context, tl domain.WorkflowTimeLimit) (policy.Policy, error)
}

// SweepTrigger is satisfied by *scheduler.Scheduler.
type SweepTrigger interface {
	Trigger(ctx context.Context) (sweep.Result, error)
}

type Server struct {
	log         *slog.Logger
	manuscripts service.ManuscriptService
	assignments service.AssignmentService
	invitations service.InvitationService
	policies    PolicyStore
	sweeper     SweepTrigger
}

func NewServer(
	log *slog.Logger,
	ms service.ManuscriptService,
	as service.AssignmentService,
	is service.InvitationService,
	ps PolicyStore,
	st SweepTrigger,
) *Server {
	return &Server{
		log:         log,
		manuscripts: ms,
		assignments: as,
		invitations: is,
		policies:    ps,
		sweeper:     st,
	}
}

func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Route("/manuscripts", func(r chi.Router) {
		r.Post("/", s.PostManuscript)
		r.Get("/{id}", s.GetManuscript)
		r.Post("/{id}/events", s.PostManuscriptEvent)
		r.Post("/{id}/assignments", s.PostAssignment)
		r.Post("/{id}/invitations", s.PostInvitation)
	})

	mux.Post("/assignments/{id}/response", s.PostAssignmentResponse)

	mux.Route("/invitations/{token}", func(r chi.Router) {
		r.Get("/", s.GetInvitation)
		r.Post("/response", s.PostInvitationResponse)
		r.Post("/review", s.PostReview)
	})

	mux.Get("/policies/{stage}", s.GetPolicy)
	mux.Put("/policies/{stage}", s.PutPolicy)

	mux.Post("/sweep/run", s.PostSweepRun)

	return mux
}

func (s *Server) respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respond(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func (s *Server) decodeAndValidate(r *http.Request, v any) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	return validation.ValidateStruct(v)
}

func (s *Server) decode(body io.ReadCloser, v any) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError logs err and maps its category to a response. Request
// shape problems are 400, business rule violations 422, state conflicts 409.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op), slog.String("request_id", requestIDFrom(r.Context())))

	var validationErr *validation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		log.Info("request rejected", sl.Err(err))
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		log.Info("request rejected", sl.Err(err))
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	case errors.Is(err, apperrors.ErrNotFound):
		log.Info("resource not found", sl.Err(err))
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, apperrors.ErrValidation):
		log.Info("business rule violated", sl.Err(err))
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", rootMessage(err))
	case errors.Is(err, apperrors.ErrExpired):
		log.Info("deadline passed", sl.Err(err))
		s.respondError(w, http.StatusConflict, "EXPIRED", apperrors.ErrExpired.Error())
	case errors.Is(err, apperrors.ErrAlreadyResponded):
		log.Info("duplicate response", sl.Err(err))
		s.respondError(w, http.StatusConflict, "ALREADY_RESPONDED", apperrors.ErrAlreadyResponded.Error())
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Info("invalid transition", sl.Err(err))
		s.respondError(w, http.StatusConflict, "INVALID_TRANSITION", rootMessage(err))
	case errors.Is(err, apperrors.ErrConflict):
		log.Info("state conflict", sl.Err(err))
		s.respondError(w, http.StatusConflict, "CONFLICT", rootMessage(err))
	default:
		log.Error("service error occurred", sl.Err(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

// rootMessage strips the op prefixes added while the error travelled up.
func rootMessage(err error) string {
	msg := err.Error()

	for strings.HasPrefix(msg, "internal.") {
		_, rest, ok := strings.Cut(msg, ": ")
		if !ok {
			break
		}

		msg = rest
	}

	return msg
}
