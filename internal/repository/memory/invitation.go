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

type invitationRepository struct {
	s *Store
}

func (r *invitationRepository) Create(_ context.Context, inv *domain.ReviewerInvitation) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.invitations {
		if existing.ID == inv.ID || existing.InvitationToken == inv.InvitationToken {
			return fmt.Errorf("%w: invitation '%s' already exists", apperrors.ErrConflict, inv.ID)
		}
	}

	r.s.invitations[inv.ID] = *inv

	return nil
}

func (r *invitationRepository) Get(_ context.Context, id string) (*domain.ReviewerInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, fmt.Errorf("%w: invitation with id '%s'", apperrors.ErrNotFound, id)
	}

	return &inv, nil
}

func (r *invitationRepository) GetByToken(_ context.Context, token string) (*domain.ReviewerInvitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, inv := range r.s.invitations {
		if inv.InvitationToken == token {
			return &inv, nil
		}
	}

	return nil, fmt.Errorf("%w: invitation token", apperrors.ErrNotFound)
}

func (r *invitationRepository) ListByManuscript(_ context.Context, manuscriptID string) ([]domain.ReviewerInvitation, error) {
	return r.filter(func(inv domain.ReviewerInvitation) bool {
		return inv.ManuscriptID == manuscriptID
	}), nil
}

func (r *invitationRepository) FindNeedingReminder(_ context.Context, before time.Time) ([]domain.ReviewerInvitation, error) {
	return r.filter(func(inv domain.ReviewerInvitation) bool {
		return inv.Status == domain.InvitationPending &&
			!inv.InvitedAt.After(before) &&
			inv.FirstReminderSent == nil
	}), nil
}

func (r *invitationRepository) FindNeedingWithdrawal(_ context.Context, before time.Time) ([]domain.ReviewerInvitation, error) {
	return r.filter(func(inv domain.ReviewerInvitation) bool {
		return inv.Status == domain.InvitationPending &&
			!inv.InvitedAt.After(before) &&
			inv.FirstReminderSent != nil
	}), nil
}

func (r *invitationRepository) CompareAndSet(_ context.Context, id string, expected domain.InvitationStatus, mutate func(*domain.ReviewerInvitation) error) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.invitations[id]
	if !ok {
		return false, fmt.Errorf("%w: invitation with id '%s'", apperrors.ErrNotFound, id)
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

	r.s.invitations[id] = next

	return true, nil
}

func (r *invitationRepository) filter(keep func(domain.ReviewerInvitation) bool) []domain.ReviewerInvitation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []domain.ReviewerInvitation{}

	for _, inv := range r.s.invitations {
		if keep(inv) {
			result = append(result, inv)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].InvitedAt.Before(result[j].InvitedAt)
	})

	return result
}
