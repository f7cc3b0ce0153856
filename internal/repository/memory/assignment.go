package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
)

type assignmentRepository struct {
	s *Store
}

func (r *assignmentRepository) Create(_ context.Context, a *domain.EditorAssignment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.assignments[a.ID]; exists {
		return fmt.Errorf("%w: assignment '%s' already exists", apperrors.ErrConflict, a.ID)
	}

	r.s.assignments[a.ID] = *a

	return nil
}

func (r *assignmentRepository) Get(_ context.Context, id string) (*domain.EditorAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assignment with id '%s'", apperrors.ErrNotFound, id)
	}

	return &a, nil
}

func (r *assignmentRepository) ListByManuscript(_ context.Context, manuscriptID string) ([]domain.EditorAssignment, error) {
	return r.filter(func(a domain.EditorAssignment) bool {
		return a.ManuscriptID == manuscriptID
	}), nil
}

func (r *assignmentRepository) FindPending(_ context.Context, before time.Time) ([]domain.EditorAssignment, error) {
	return r.filter(func(a domain.EditorAssignment) bool {
		return a.Status == domain.AssignmentPending && a.Deadline.Before(before)
	}), nil
}

func (r *assignmentRepository) CompareAndSet(_ context.Context, id string, expected domain.AssignmentStatus, mutate func(*domain.EditorAssignment) error) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.assignments[id]
	if !ok {
		return false, fmt.Errorf("%w: assignment with id '%s'", apperrors.ErrNotFound, id)
	}

	if current.Status != expected {
		return false, nil
	}

	next := current
	if err := mutate(&next); err != nil {
		if errors.Is(err, repository.ErrSkip) {
			return false, nil
		}

		return false, err
	}

	if err := next.Validate(); err != nil {
		return false, err
	}

	r.s.assignments[id] = next

	return true, nil
}

func (r *assignmentRepository) filter(keep func(domain.EditorAssignment) bool) []domain.EditorAssignment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []domain.EditorAssignment{}

	for _, a := range r.s.assignments {
		if keep(a) {
			result = append(result, a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AssignedAt.Before(result[j].AssignedAt)
	})

	return result
}
