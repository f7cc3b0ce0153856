// Package policy resolves per-stage deadline policies. A stage without an
// active row falls back to compiled-in defaults.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
)

const (
	StageEditorAssignment   = "editor_assignment"
	StageReviewerInvitation = "reviewer_invitation"
	StageReviewerReview     = "reviewer_review"
)

const day = 24 * time.Hour

// Policy is the resolved, duration-based view of a WorkflowTimeLimit.
type Policy struct {
	Stage string
	// TimeLimit is the response window measured from the invitation.
	TimeLimit time.Duration
	// Reminders are offsets before TimeLimit, largest first.
	Reminders []time.Duration
	// Escalations are offsets after TimeLimit, smallest first.
	Escalations []time.Duration
	// Default is true when no active row was found.
	Default bool
}

// ReminderAfter is how long after the invitation the first reminder is due.
func (p Policy) ReminderAfter() time.Duration {
	return p.TimeLimit
}

// WithdrawAfter is how long after the invitation an unanswered, reminded
// invitation is withdrawn.
func (p Policy) WithdrawAfter() time.Duration {
	if len(p.Escalations) == 0 {
		return p.TimeLimit
	}

	return p.TimeLimit + p.Escalations[0]
}

// Grace is the extra response time quoted in a reminder.
func (p Policy) Grace() time.Duration {
	return p.WithdrawAfter() - p.ReminderAfter()
}

var defaults = map[string]domain.WorkflowTimeLimit{
	StageEditorAssignment: {
		Stage:          StageEditorAssignment,
		TimeLimitDays:  7,
		ReminderDays:   []int64{3, 1},
		EscalationDays: []int64{},
		IsActive:       true,
	},
	StageReviewerInvitation: {
		Stage:          StageReviewerInvitation,
		TimeLimitDays:  7,
		ReminderDays:   []int64{},
		EscalationDays: []int64{7},
		IsActive:       true,
	},
	StageReviewerReview: {
		Stage:          StageReviewerReview,
		TimeLimitDays:  21,
		ReminderDays:   []int64{7, 3, 1},
		EscalationDays: []int64{7, 14, 21},
		IsActive:       true,
	},
}

// Default returns the compiled-in policy for stage. Unknown stages get a
// seven day window with no reminders or escalations.
func Default(stage string) Policy {
	tl, ok := defaults[stage]
	if !ok {
		tl = domain.WorkflowTimeLimit{Stage: stage, TimeLimitDays: 7, IsActive: true}
	}

	p := FromTimeLimit(tl)
	p.Default = true

	return p
}

func FromTimeLimit(tl domain.WorkflowTimeLimit) Policy {
	return Policy{
		Stage:       tl.Stage,
		TimeLimit:   time.Duration(tl.TimeLimitDays) * day,
		Reminders:   days(tl.ReminderDays),
		Escalations: days(tl.EscalationDays),
	}
}

func days(offsets []int64) []time.Duration {
	result := make([]time.Duration, len(offsets))
	for i, d := range offsets {
		result[i] = time.Duration(d) * day
	}

	return result
}

type Store struct {
	repo repository.TimeLimitRepository
	log  *slog.Logger
}

func NewStore(repo repository.TimeLimitRepository, log *slog.Logger) *Store {
	return &Store{repo: repo, log: log}
}

// Get returns the active policy for stage, or the default one when the row is
// missing or inactive. Storage errors are returned, not masked by defaults.
func (s *Store) Get(ctx context.Context, stage string) (Policy, error) {
	const op = "internal.policy.Get"

	tl, err := s.repo.GetByStage(ctx, stage)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Default(stage), nil
		}

		return Policy{}, fmt.Errorf("%s: failed to load time limit: %w", op, err)
	}

	if !tl.IsActive {
		s.log.Debug("time limit inactive, using default", slog.String("op", op), slog.String("stage", stage))
		return Default(stage), nil
	}

	if tl.TimeLimitDays <= 0 {
		s.log.Warn("time limit has no positive window, using default",
			slog.String("op", op),
			slog.String("stage", stage),
			slog.Int("time_limit_days", tl.TimeLimitDays),
		)

		return Default(stage), nil
	}

	p := FromTimeLimit(*tl)

	if needsGrace(stage) && p.Grace() <= 0 {
		s.log.Warn("time limit has no escalation offset, using default grace",
			slog.String("op", op),
			slog.String("stage", stage),
		)

		p.Escalations = Default(stage).Escalations
	}

	return p, nil
}

// needsGrace reports whether stage withdraws after its first escalation
// offset, which then must be positive.
func needsGrace(stage string) bool {
	return stage == StageReviewerInvitation
}

// Known reports whether stage has a compiled-in default.
func Known(stage string) bool {
	_, ok := defaults[stage]
	return ok
}

// Put stores a time limit row for one of the known stages.
func (s *Store) Put(ctx context.Context, tl domain.WorkflowTimeLimit) (Policy, error) {
	const op = "internal.policy.Put"

	if !Known(tl.Stage) {
		return Policy{}, fmt.Errorf("%w: unknown stage '%s'", apperrors.ErrNotFound, tl.Stage)
	}

	if tl.TimeLimitDays <= 0 {
		return Policy{}, fmt.Errorf("%w: time limit must be positive", apperrors.ErrValidation)
	}

	if needsGrace(tl.Stage) && (len(tl.EscalationDays) == 0 || tl.EscalationDays[0] <= 0) {
		return Policy{}, fmt.Errorf("%w: stage '%s' needs a positive first escalation offset", apperrors.ErrValidation, tl.Stage)
	}

	if tl.ReminderDays == nil {
		tl.ReminderDays = []int64{}
	}

	if tl.EscalationDays == nil {
		tl.EscalationDays = []int64{}
	}

	if err := s.repo.Upsert(ctx, &tl); err != nil {
		return Policy{}, fmt.Errorf("%s: failed to store time limit: %w", op, err)
	}

	s.log.Info("time limit updated",
		slog.String("op", op),
		slog.String("stage", tl.Stage),
		slog.Int("time_limit_days", tl.TimeLimitDays),
		slog.Bool("is_active", tl.IsActive),
	)

	if !tl.IsActive {
		return Default(tl.Stage), nil
	}

	return FromTimeLimit(tl), nil
}
