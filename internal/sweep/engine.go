// Package sweep implements the deadline sweep: reminders for unanswered
// reviewer invitations, withdrawal of invitations that stay unanswered after
// the reminder, and expiry of overdue editor assignments.
//
// Every mutation goes through a repository compare-and-set, so a sweep may be
// triggered more than once, or from several instances, without sending a
// reminder or a withdrawal twice.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/YusovID/editorial-workflow/internal/apperrors"
	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/notify"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/repository"
	"github.com/YusovID/editorial-workflow/internal/workflow"
	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"golang.org/x/sync/errgroup"
)

type Pass string

const (
	PassReminder   Pass = "reminder"
	PassWithdrawal Pass = "withdrawal"
	PassExpiry     Pass = "expiry"
)

const deadlineLayout = "2006-01-02 15:04 MST"

// PolicySource is satisfied by *policy.Store.
type PolicySource interface {
	Get(ctx context.Context, stage string) (policy.Policy, error)
}

type Options struct {
	// Fanout bounds concurrent rows within one pass.
	Fanout int
	// DispatchTimeout bounds a single notification send.
	DispatchTimeout time.Duration
	// ClaimLease is how long a reminder claim blocks other sweepers. It must
	// exceed DispatchTimeout.
	ClaimLease time.Duration
	// EditorialOfficeEmail receives escalations. Empty disables them.
	EditorialOfficeEmail string
	ResponseBaseURL      string
	Now                  func() time.Time
}

type RowError struct {
	Pass  Pass   `json:"pass"`
	RowID string `json:"row_id,omitempty"`
	Err   error  `json:"-"`
}

func (e RowError) Error() string {
	if e.RowID == "" {
		return fmt.Sprintf("%s pass: %v", e.Pass, e.Err)
	}

	return fmt.Sprintf("%s pass, row %s: %v", e.Pass, e.RowID, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

type Result struct {
	StartedAt            time.Time  `json:"started_at"`
	RemindersProcessed   int        `json:"reminders_processed"`
	WithdrawalsProcessed int        `json:"withdrawals_processed"`
	ExpirationsProcessed int        `json:"expirations_processed"`
	Errors               []RowError `json:"errors"`
}

type Engine struct {
	store      repository.Store
	policies   PolicySource
	dispatcher notify.Dispatcher
	log        *slog.Logger
	opts       Options
}

func NewEngine(store repository.Store, policies PolicySource, dispatcher notify.Dispatcher, log *slog.Logger, opts Options) *Engine {
	if opts.Fanout <= 0 {
		opts.Fanout = 1
	}

	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 10 * time.Second
	}

	if opts.ClaimLease <= opts.DispatchTimeout {
		opts.ClaimLease = opts.DispatchTimeout + time.Minute
	}

	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		store:      store,
		policies:   policies,
		dispatcher: dispatcher,
		log:        log,
		opts:       opts,
	}
}

// RunSweep runs the reminder, withdrawal and expiry passes in that order.
// Row failures are collected into the result. The returned error is non-nil
// only when a whole pass could not run, e.g. storage was unavailable; the
// remaining passes still run.
func (e *Engine) RunSweep(ctx context.Context) (Result, error) {
	const op = "internal.sweep.RunSweep"
	log := e.log.With(slog.String("op", op), slog.String("trigger", TriggerFrom(ctx)))

	// Postgres keeps microseconds; claims are compared against stored values.
	now := e.opts.Now().Truncate(time.Microsecond)
	res := &collector{result: Result{StartedAt: now, Errors: []RowError{}}}

	var passErrs []error

	for _, pass := range []struct {
		name Pass
		run  func(context.Context, time.Time, *collector) error
	}{
		{PassReminder, e.reminderPass},
		{PassWithdrawal, e.withdrawalPass},
		{PassExpiry, e.expiryPass},
	} {
		if err := pass.run(ctx, now, res); err != nil {
			log.Error("pass failed", slog.String("pass", string(pass.name)), sl.Err(err))
			res.fail(pass.name, "", err)
			passErrs = append(passErrs, fmt.Errorf("%s pass: %w", pass.name, err))
		}
	}

	sweepDuration.Observe(e.opts.Now().Sub(now).Seconds())

	result := res.snapshot()

	log.Info("sweep finished",
		slog.Int("reminders", result.RemindersProcessed),
		slog.Int("withdrawals", result.WithdrawalsProcessed),
		slog.Int("expirations", result.ExpirationsProcessed),
		slog.Int("errors", len(result.Errors)),
	)

	return result, errors.Join(passErrs...)
}

func (e *Engine) reminderPass(ctx context.Context, now time.Time, res *collector) error {
	pol, err := e.policies.Get(ctx, policy.StageReviewerInvitation)
	if err != nil {
		return err
	}

	rows, err := e.store.Invitations().FindNeedingReminder(ctx, now.Add(-pol.ReminderAfter()))
	if err != nil {
		return err
	}

	finalDeadline := now.Add(pol.Grace())

	e.forEach(ctx, len(rows), func(ctx context.Context, i int) {
		e.remind(ctx, rows[i], now, finalDeadline, res)
	})

	return nil
}

func (e *Engine) remind(ctx context.Context, inv domain.ReviewerInvitation, now, finalDeadline time.Time, res *collector) {
	log := e.log.With(slog.String("pass", string(PassReminder)), slog.String("invitation_id", inv.ID))

	// The claim lives in its own column so a lost claim can never pass for a
	// sent reminder. Claims older than the lease belong to a dead sweeper.
	staleBefore := now.Add(-e.opts.ClaimLease)

	claimed, err := e.store.Invitations().CompareAndSet(ctx, inv.ID, domain.InvitationPending, func(r *domain.ReviewerInvitation) error {
		if r.FirstReminderSent != nil {
			return repository.ErrSkip
		}

		if r.ReminderClaimedAt != nil && r.ReminderClaimedAt.After(staleBefore) {
			return repository.ErrSkip
		}

		r.ReminderClaimedAt = &now

		return nil
	})
	if err != nil {
		res.fail(PassReminder, inv.ID, err)
		log.Error("failed to claim reminder", sl.Err(err))

		return
	}

	if !claimed {
		log.Debug("invitation claimed or changed concurrently, skipping")
		return
	}

	vars := e.invitationVars(ctx, inv)
	vars["final_deadline"] = finalDeadline.Format(deadlineLayout)

	// Claim bookkeeping must outlive a cancelled sweep.
	bg := context.WithoutCancel(ctx)

	if err := e.dispatch(ctx, notify.TemplateReviewerReminder, inv.ReviewerEmail, vars); err != nil {
		res.fail(PassReminder, inv.ID, err)
		log.Warn("reminder dispatch failed, releasing claim", sl.Err(err))
		e.settleReminder(bg, inv.ID, now, false, res)

		return
	}

	if e.settleReminder(bg, inv.ID, now, true, res) {
		res.count(PassReminder)
	}
}

// settleReminder ends a claim taken at claimedAt. On success the reminder
// marker is recorded; otherwise the claim is dropped so the next sweep
// retries the row. It reports whether the marker was recorded.
func (e *Engine) settleReminder(ctx context.Context, id string, claimedAt time.Time, sent bool, res *collector) bool {
	log := e.log.With(slog.String("pass", string(PassReminder)), slog.String("invitation_id", id))

	applied, err := e.store.Invitations().CompareAndSet(ctx, id, domain.InvitationPending, func(r *domain.ReviewerInvitation) error {
		if r.FirstReminderSent != nil {
			return repository.ErrSkip
		}

		if !sent && (r.ReminderClaimedAt == nil || !r.ReminderClaimedAt.Equal(claimedAt)) {
			return repository.ErrSkip
		}

		if sent {
			r.FirstReminderSent = &claimedAt
		}

		r.ReminderClaimedAt = nil

		return nil
	})
	if err != nil {
		res.fail(PassReminder, id, fmt.Errorf("settle reminder claim: %w", err))
		log.Error("failed to settle reminder claim", slog.Bool("sent", sent), sl.Err(err))

		return false
	}

	if sent && !applied {
		log.Info("reminder sent but invitation was answered meanwhile")
	}

	return applied
}

func (e *Engine) withdrawalPass(ctx context.Context, now time.Time, res *collector) error {
	pol, err := e.policies.Get(ctx, policy.StageReviewerInvitation)
	if err != nil {
		return err
	}

	rows, err := e.store.Invitations().FindNeedingWithdrawal(ctx, now.Add(-pol.WithdrawAfter()))
	if err != nil {
		return err
	}

	// A reminded reviewer keeps the full grace window quoted in the reminder.
	remindedBy := now.Add(-pol.Grace())

	e.forEach(ctx, len(rows), func(ctx context.Context, i int) {
		e.withdraw(ctx, rows[i], now, remindedBy, res)
	})

	return nil
}

func (e *Engine) withdraw(ctx context.Context, inv domain.ReviewerInvitation, now, remindedBy time.Time, res *collector) {
	log := e.log.With(slog.String("pass", string(PassWithdrawal)), slog.String("invitation_id", inv.ID))

	var withdrawn bool

	err := e.store.RunInTx(ctx, func(tx repository.Store) error {
		m, err := tx.Manuscripts().GetForUpdate(ctx, inv.ManuscriptID)
		if err != nil {
			return err
		}

		withdrawn, err = tx.Invitations().CompareAndSet(ctx, inv.ID, domain.InvitationPending, func(r *domain.ReviewerInvitation) error {
			if r.FirstReminderSent == nil || r.FirstReminderSent.After(remindedBy) {
				return repository.ErrSkip
			}

			r.Status = domain.InvitationWithdrawn
			r.WithdrawnAt = &now

			return nil
		})
		if err != nil || !withdrawn {
			return err
		}

		return e.applyToManuscript(ctx, tx, m, workflow.EventReviewerWithdrawn, now)
	})
	if err != nil {
		res.fail(PassWithdrawal, inv.ID, err)
		log.Error("failed to withdraw invitation", sl.Err(err))

		return
	}

	if !withdrawn {
		log.Debug("invitation changed concurrently, skipping")
		return
	}

	res.count(PassWithdrawal)

	// The state change stands even if the notice cannot be delivered.
	if err := e.dispatch(ctx, notify.TemplateReviewerWithdrawn, inv.ReviewerEmail, e.invitationVars(ctx, inv)); err != nil {
		res.fail(PassWithdrawal, inv.ID, err)
		log.Warn("withdrawal notice failed", sl.Err(err))
	}
}

func (e *Engine) expiryPass(ctx context.Context, now time.Time, res *collector) error {
	rows, err := e.store.Assignments().FindPending(ctx, now)
	if err != nil {
		return err
	}

	e.forEach(ctx, len(rows), func(ctx context.Context, i int) {
		e.expire(ctx, rows[i], now, res)
	})

	return nil
}

func (e *Engine) expire(ctx context.Context, a domain.EditorAssignment, now time.Time, res *collector) {
	log := e.log.With(slog.String("pass", string(PassExpiry)), slog.String("assignment_id", a.ID))

	var expired bool

	err := e.store.RunInTx(ctx, func(tx repository.Store) error {
		m, err := tx.Manuscripts().GetForUpdate(ctx, a.ManuscriptID)
		if err != nil {
			return err
		}

		expired, err = tx.Assignments().CompareAndSet(ctx, a.ID, domain.AssignmentPending, func(r *domain.EditorAssignment) error {
			if !now.After(r.Deadline) {
				return repository.ErrSkip
			}

			r.Status = domain.AssignmentExpired

			return nil
		})
		if err != nil || !expired {
			return err
		}

		return e.applyToManuscript(ctx, tx, m, workflow.EventEditorAssignmentExpired, now)
	})
	if err != nil {
		res.fail(PassExpiry, a.ID, err)
		log.Error("failed to expire assignment", sl.Err(err))

		return
	}

	if !expired {
		log.Debug("assignment changed concurrently, skipping")
		return
	}

	res.count(PassExpiry)
	log.Info("editor assignment expired, manuscript queued for re-assignment", slog.String("manuscript_id", a.ManuscriptID))

	if e.opts.EditorialOfficeEmail == "" {
		return
	}

	vars := map[string]string{
		"manuscript_id":    a.ManuscriptID,
		"manuscript_title": e.manuscriptTitle(ctx, a.ManuscriptID),
		"editor_id":        a.EditorID,
		"deadline":         a.Deadline.Format(deadlineLayout),
	}

	if err := e.dispatch(ctx, notify.TemplateEditorAssignmentExpired, e.opts.EditorialOfficeEmail, vars); err != nil {
		res.fail(PassExpiry, a.ID, err)
		log.Warn("expiry escalation failed", sl.Err(err))
	}
}

// applyToManuscript routes a sweep outcome through the state machine. The
// manuscript must already be locked by tx, ahead of the swept row. A
// manuscript that has already moved past the stage the event belongs to is
// left unchanged.
func (e *Engine) applyToManuscript(ctx context.Context, tx repository.Store, m *domain.Manuscript, event workflow.Event, now time.Time) error {
	next, err := workflow.Apply(m, event)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			e.log.Debug("manuscript not affected by sweep event",
				slog.String("manuscript_id", m.ID),
				slog.String("status", string(m.Status)),
				slog.String("event", string(event)),
			)

			return nil
		}

		return err
	}

	m.Status = next
	m.UpdatedAt = now

	return tx.Manuscripts().Update(ctx, m)
}

func (e *Engine) dispatch(ctx context.Context, templateID notify.TemplateID, recipient string, vars map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.DispatchTimeout)
	defer cancel()

	if _, err := e.dispatcher.Dispatch(ctx, templateID, recipient, vars); err != nil {
		return &apperrors.DispatchError{TemplateID: string(templateID), Recipient: recipient, Err: err}
	}

	return nil
}

func (e *Engine) invitationVars(ctx context.Context, inv domain.ReviewerInvitation) map[string]string {
	return map[string]string{
		"manuscript_id":    inv.ManuscriptID,
		"manuscript_title": e.manuscriptTitle(ctx, inv.ManuscriptID),
		"reviewer_name":    inv.ReviewerName,
		"response_url":     e.opts.ResponseBaseURL + "?token=" + inv.InvitationToken,
	}
}

func (e *Engine) manuscriptTitle(ctx context.Context, id string) string {
	m, err := e.store.Manuscripts().Get(ctx, id)
	if err != nil {
		e.log.Warn("failed to load manuscript title", slog.String("manuscript_id", id), sl.Err(err))
		return id
	}

	return m.Title
}

// forEach runs fn for indexes [0, n) with at most Fanout in flight.
func (e *Engine) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(e.opts.Fanout)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}

	_ = g.Wait()
}

type collector struct {
	mu     sync.Mutex
	result Result
}

func (c *collector) count(pass Pass) {
	rowsProcessed.WithLabelValues(string(pass)).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch pass {
	case PassReminder:
		c.result.RemindersProcessed++
	case PassWithdrawal:
		c.result.WithdrawalsProcessed++
	case PassExpiry:
		c.result.ExpirationsProcessed++
	}
}

func (c *collector) fail(pass Pass, rowID string, err error) {
	rowErrors.WithLabelValues(string(pass)).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.result.Errors = append(c.result.Errors, RowError{Pass: pass, RowID: rowID, Err: err})
}

func (c *collector) snapshot() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.result
	r.Errors = append([]RowError(nil), c.result.Errors...)

	return r
}
