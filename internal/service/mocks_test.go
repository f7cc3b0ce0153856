package service

import (
	"context"
	"sync"
	"time"

	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/stretchr/testify/mock"
)

type DispatcherMock struct {
	mock.Mock
}

var _ notify.Dispatcher = (*DispatcherMock)(nil)

func (m *DispatcherMock) Dispatch(ctx context.Context, templateID notify.TemplateID, recipient string, vars map[string]string) (string, error) {
	args := m.Called(ctx, templateID, recipient, vars)
	return args.String(0), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
