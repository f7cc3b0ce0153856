package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

const officeEmail = "office@journal.test"

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store      *memory.Store
	dispatcher *DispatcherMock
	clock      *fakeClock
	base       BaseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	dispatcher := new(DispatcherMock)
	clock := &fakeClock{now: baseTime}

	base := NewBaseService(store, policy.NewStore(store.TimeLimits(), log), dispatcher, log, Options{
		EditorialOfficeEmail: officeEmail,
		ResponseBaseURL:      "https://journal.test/respond",
		DispatchTimeout:      time.Second,
		Now:                  clock.Now,
	})

	t.Cleanup(func() { dispatcher.AssertExpectations(t) })

	return &testEnv{
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		base:       base,
	}
}

func (e *testEnv) seedManuscript(t *testing.T, status domain.ManuscriptStatus, editorID *string) *domain.Manuscript {
	t.Helper()

	m := &domain.Manuscript{
		ID:          uuid.NewString(),
		Title:       "On the Stability of Deadline Sweeps",
		AuthorID:    "author-1",
		Status:      status,
		SubmittedAt: baseTime.Add(-72 * time.Hour),
		UpdatedAt:   baseTime.Add(-72 * time.Hour),
		EditorID:    editorID,
		ReviewerIDs: pq.StringArray{},
	}

	require.NoError(t, e.store.Manuscripts().Create(context.Background(), m))

	return m
}

func ptr[T any](v T) *T {
	return &v
}
