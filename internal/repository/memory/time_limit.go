package memory

import (
	"context"
	"fmt"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
)

type timeLimitRepository struct {
	s *Store
}

func (r *timeLimitRepository) GetByStage(_ context.Context, stage string) (*domain.WorkflowTimeLimit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tl, ok := r.s.timeLimits[stage]
	if !ok {
		return nil, fmt.Errorf("%w: time limit for stage '%s'", apperrors.ErrNotFound, stage)
	}

	tl = copyTimeLimit(tl)

	return &tl, nil
}

func (r *timeLimitRepository) Upsert(_ context.Context, tl *domain.WorkflowTimeLimit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.timeLimits[tl.Stage] = copyTimeLimit(*tl)

	return nil
}
