package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
)

// PolicySource is satisfied by *policy.Store.
type PolicySource interface {
	Get(ctx context.Context, stage string) (policy.Policy, error)
}

type Options struct {
	EditorialOfficeEmail string
	ResponseBaseURL      string
	DispatchTimeout      time.Duration
	Now                  func() time.Time
}

type BaseService struct {
	store      repository.Store
	policies   PolicySource
	dispatcher notify.Dispatcher
	log        *slog.Logger
	opts       Options
}

func NewBaseService(store repository.Store, policies PolicySource, dispatcher notify.Dispatcher, log *slog.Logger, opts Options) BaseService {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 10 * time.Second
	}

	return BaseService{
		store:      store,
		policies:   policies,
		dispatcher: dispatcher,
		log:        log,
		opts:       opts,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx repository.Store) error) error {
	if err := s.store.RunInTx(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// notify sends a message after the state change it describes has been
// committed. A failed send is logged and does not fail the request.
func (s *BaseService) notify(ctx context.Context, log *slog.Logger, templateID notify.TemplateID, recipient string, vars map[string]string) {
	if recipient == "" {
		log.Debug("no recipient, notification skipped", slog.String("template", string(templateID)))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.DispatchTimeout)
	defer cancel()

	messageID, err := s.dispatcher.Dispatch(ctx, templateID, recipient, vars)
	if err != nil {
		log.Warn("failed to dispatch notification", slog.String("template", string(templateID)), sl.Err(err))
		return
	}

	log.Debug("notification dispatched", slog.String("template", string(templateID)), slog.String("message_id", messageID))
}

func (s *BaseService) responseURL(token string) string {
	return s.opts.ResponseBaseURL + "?token=" + token
}

const deadlineLayout = "2006-01-02 15:04 MST"
