package memory

import (
	"context"
	"fmt"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
)

type manuscriptRepository struct {
	s *Store
}

func (r *manuscriptRepository) Create(_ context.Context, m *domain.Manuscript) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.manuscripts[m.ID]; exists {
		return fmt.Errorf("%w: manuscript '%s' already exists", apperrors.ErrConflict, m.ID)
	}

	r.s.manuscripts[m.ID] = copyManuscript(*m)

	return nil
}

func (r *manuscriptRepository) Get(_ context.Context, id string) (*domain.Manuscript, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.manuscripts[id]
	if !ok {
		return nil, fmt.Errorf("%w: manuscript with id '%s'", apperrors.ErrNotFound, id)
	}

	m = copyManuscript(m)

	return &m, nil
}

func (r *manuscriptRepository) GetForUpdate(ctx context.Context, id string) (*domain.Manuscript, error) {
	return r.Get(ctx, id)
}

func (r *manuscriptRepository) Update(_ context.Context, m *domain.Manuscript) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.manuscripts[m.ID]; !ok {
		return fmt.Errorf("%w: manuscript with id '%s'", apperrors.ErrNotFound, m.ID)
	}

	r.s.manuscripts[m.ID] = copyManuscript(*m)

	return nil
}
