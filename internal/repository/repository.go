// Package repository defines the persistence contracts for the editorial
// workflow. Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/YusovID/editorial-workflow/internal/domain"
)

// ErrSkip is returned by a CAS mutation to abandon the write. CompareAndSet
// then reports false without an error.
var ErrSkip = errors.New("skip row")

// Store groups the repositories and lets callers run several writes in one
// transaction.
type Store interface {
	Manuscripts() ManuscriptRepository
	Assignments() AssignmentRepository
	Invitations() InvitationRepository
	TimeLimits() TimeLimitRepository

	// RunInTx calls fn with a Store bound to a single transaction. The
	// transaction is committed if fn returns nil and rolled back otherwise.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}

type ManuscriptRepository interface {
	// Create inserts a new manuscript.
	Create(ctx context.Context, m *domain.Manuscript) error

	// Get returns apperrors.ErrNotFound if the manuscript does not exist.
	Get(ctx context.Context, id string) (*domain.Manuscript, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Manuscript, error)

	// Update persists status, editor and reviewers of m.
	Update(ctx context.Context, m *domain.Manuscript) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.EditorAssignment) error

	// Get returns apperrors.ErrNotFound if the assignment does not exist.
	Get(ctx context.Context, id string) (*domain.EditorAssignment, error)

	ListByManuscript(ctx context.Context, manuscriptID string) ([]domain.EditorAssignment, error)

	// FindPending returns pending assignments whose deadline is before the
	// given instant.
	FindPending(ctx context.Context, before time.Time) ([]domain.EditorAssignment, error)

	// CompareAndSet loads the row, and if its status still equals expected,
	// applies mutate and writes the result. It reports false when the status
	// has moved on or mutate returned ErrSkip. The written row is re-validated
	// against the domain invariants.
	CompareAndSet(ctx context.Context, id string, expected domain.AssignmentStatus, mutate func(*domain.EditorAssignment) error) (bool, error)
}

type InvitationRepository interface {
	// Create returns apperrors.ErrConflict if the token is already in use.
	Create(ctx context.Context, inv *domain.ReviewerInvitation) error

	// Get returns apperrors.ErrNotFound if the invitation does not exist.
	Get(ctx context.Context, id string) (*domain.ReviewerInvitation, error)

	// GetByToken returns apperrors.ErrNotFound for an unknown token.
	GetByToken(ctx context.Context, token string) (*domain.ReviewerInvitation, error)

	ListByManuscript(ctx context.Context, manuscriptID string) ([]domain.ReviewerInvitation, error)

	// FindNeedingReminder returns pending, never-reminded invitations sent at
	// or before the given instant.
	FindNeedingReminder(ctx context.Context, before time.Time) ([]domain.ReviewerInvitation, error)

	// FindNeedingWithdrawal returns pending, already-reminded invitations
	// sent at or before the given instant.
	FindNeedingWithdrawal(ctx context.Context, before time.Time) ([]domain.ReviewerInvitation, error)

	// CompareAndSet has the same contract as AssignmentRepository.CompareAndSet.
	CompareAndSet(ctx context.Context, id string, expected domain.InvitationStatus, mutate func(*domain.ReviewerInvitation) error) (bool, error)
}

type TimeLimitRepository interface {
	// GetByStage returns apperrors.ErrNotFound if no row exists for stage.
	GetByStage(ctx context.Context, stage string) (*domain.WorkflowTimeLimit, error)

	// Upsert creates or replaces the row for tl.Stage.
	Upsert(ctx context.Context, tl *domain.WorkflowTimeLimit) error
}
