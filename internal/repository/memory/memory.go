// Package memory is an in-process implementation of repository.Store. It
// backs the local environment and the unit tests of the packages above it.
package memory

import (
	"context"
	"sync"

	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/repository"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	manuscripts map[string]domain.Manuscript
	assignments map[string]domain.EditorAssignment
	invitations map[string]domain.ReviewerInvitation
	timeLimits  map[string]domain.WorkflowTimeLimit
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		manuscripts: make(map[string]domain.Manuscript),
		assignments: make(map[string]domain.EditorAssignment),
		invitations: make(map[string]domain.ReviewerInvitation),
		timeLimits:  make(map[string]domain.WorkflowTimeLimit),
	}
}

func (s *Store) Manuscripts() repository.ManuscriptRepository { return &manuscriptRepository{s: s} }
func (s *Store) Assignments() repository.AssignmentRepository { return &assignmentRepository{s: s} }
func (s *Store) Invitations() repository.InvitationRepository { return &invitationRepository{s: s} }
func (s *Store) TimeLimits() repository.TimeLimitRepository   { return &timeLimitRepository{s: s} }

// RunInTx serializes transactions and restores a snapshot when fn fails.
// Writes made outside RunInTx while a transaction is open are lost on
// rollback.
func (s *Store) RunInTx(_ context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()

	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

type snapshot struct {
	manuscripts map[string]domain.Manuscript
	assignments map[string]domain.EditorAssignment
	invitations map[string]domain.ReviewerInvitation
	timeLimits  map[string]domain.WorkflowTimeLimit
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		manuscripts: make(map[string]domain.Manuscript, len(s.manuscripts)),
		assignments: make(map[string]domain.EditorAssignment, len(s.assignments)),
		invitations: make(map[string]domain.ReviewerInvitation, len(s.invitations)),
		timeLimits:  make(map[string]domain.WorkflowTimeLimit, len(s.timeLimits)),
	}

	for k, v := range s.manuscripts {
		snap.manuscripts[k] = copyManuscript(v)
	}

	for k, v := range s.assignments {
		snap.assignments[k] = v
	}

	for k, v := range s.invitations {
		snap.invitations[k] = v
	}

	for k, v := range s.timeLimits {
		snap.timeLimits[k] = copyTimeLimit(v)
	}

	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manuscripts = snap.manuscripts
	s.assignments = snap.assignments
	s.invitations = snap.invitations
	s.timeLimits = snap.timeLimits
}

func copyManuscript(m domain.Manuscript) domain.Manuscript {
	if m.ReviewerIDs != nil {
		ids := make([]string, len(m.ReviewerIDs))
		copy(ids, m.ReviewerIDs)
		m.ReviewerIDs = ids
	}

	return m
}

func copyTimeLimit(tl domain.WorkflowTimeLimit) domain.WorkflowTimeLimit {
	if tl.ReminderDays != nil {
		days := make([]int64, len(tl.ReminderDays))
		copy(days, tl.ReminderDays)
		tl.ReminderDays = days
	}

	if tl.EscalationDays != nil {
		days := make([]int64, len(tl.EscalationDays))
		copy(days, tl.EscalationDays)
		tl.EscalationDays = days
	}

	return tl
}
