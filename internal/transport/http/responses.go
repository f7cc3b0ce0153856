package http

import (
	"time"

	"github.com/YusovID/editorial-workflow/internal/domain"
	"github.com/YusovID/editorial-workflow/internal/policy"
	"github.com/YusovID/editorial-workflow/internal/service"
	"github.com/YusovID/editorial-workflow/internal/sweep"
	"github.com/YusovID/editorial-workflow/internal/workflow"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type manuscriptResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorID    string    `json:"author_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	EditorID    *string   `json:"editor_id,omitempty"`
	ReviewerIDs []string  `json:"reviewer_ids"`
}

func toManuscriptResponse(m *domain.Manuscript) manuscriptResponse {
	reviewers := []string(m.ReviewerIDs)
	if reviewers == nil {
		reviewers = []string{}
	}

	return manuscriptResponse{
		ID:          m.ID,
		Title:       m.Title,
		AuthorID:    m.AuthorID,
		Status:      string(m.Status),
		SubmittedAt: m.SubmittedAt,
		UpdatedAt:   m.UpdatedAt,
		EditorID:    m.EditorID,
		ReviewerIDs: reviewers,
	}
}

type assignmentResponse struct {
	ID               string     `json:"id"`
	ManuscriptID     string     `json:"manuscript_id"`
	EditorID         string     `json:"editor_id"`
	AssignedBy       string     `json:"assigned_by"`
	AssignedAt       time.Time  `json:"assigned_at"`
	Deadline         time.Time  `json:"deadline"`
	Status           string     `json:"status"`
	ResponseAt       *time.Time `json:"response_at,omitempty"`
	ConflictDeclared bool       `json:"conflict_declared"`
	ConflictDetails  *string    `json:"conflict_details,omitempty"`
	DeclineReason    *string    `json:"decline_reason,omitempty"`
	Comments         *string    `json:"comments,omitempty"`
}

func toAssignmentResponse(a *domain.EditorAssignment) assignmentResponse {
	return assignmentResponse{
		ID:               a.ID,
		ManuscriptID:     a.ManuscriptID,
		EditorID:         a.EditorID,
		AssignedBy:       a.AssignedBy,
		AssignedAt:       a.AssignedAt,
		Deadline:         a.Deadline,
		Status:           string(a.Status),
		ResponseAt:       a.ResponseAt,
		ConflictDeclared: a.ConflictDeclared,
		ConflictDetails:  a.ConflictDetails,
		DeclineReason:    a.DeclineReason,
		Comments:         a.Comments,
	}
}

// invitationResponse never carries the token: it is only delivered by mail.
type invitationResponse struct {
	ID                string     `json:"id"`
	ManuscriptID      string     `json:"manuscript_id"`
	ReviewerID        string     `json:"reviewer_id"`
	ReviewerName      string     `json:"reviewer_name"`
	InvitedAt         time.Time  `json:"invited_at"`
	ResponseDeadline  time.Time  `json:"response_deadline"`
	ReviewDeadline    *time.Time `json:"review_deadline,omitempty"`
	Status            string     `json:"status"`
	ResponseAt        *time.Time `json:"response_at,omitempty"`
	FirstReminderSent *time.Time `json:"first_reminder_sent,omitempty"`
	WithdrawnAt       *time.Time `json:"withdrawn_at,omitempty"`
	ReviewSubmittedAt *time.Time `json:"review_submitted_at,omitempty"`
	DeclineReason     *string    `json:"decline_reason,omitempty"`
}

func toInvitationResponse(inv *domain.ReviewerInvitation) invitationResponse {
	return invitationResponse{
		ID:                inv.ID,
		ManuscriptID:      inv.ManuscriptID,
		ReviewerID:        inv.ReviewerID,
		ReviewerName:      inv.ReviewerName,
		InvitedAt:         inv.InvitedAt,
		ResponseDeadline:  inv.ResponseDeadline,
		ReviewDeadline:    inv.ReviewDeadline,
		Status:            string(inv.Status),
		ResponseAt:        inv.ResponseAt,
		FirstReminderSent: inv.FirstReminderSent,
		WithdrawnAt:       inv.WithdrawnAt,
		ReviewSubmittedAt: inv.ReviewSubmittedAt,
		DeclineReason:     inv.DeclineReason,
	}
}

type manuscriptDetailResponse struct {
	Manuscript    manuscriptResponse   `json:"manuscript"`
	Assignments   []assignmentResponse `json:"assignments"`
	Invitations   []invitationResponse `json:"invitations"`
	AllowedEvents []workflow.Event     `json:"allowed_events"`
}

func toManuscriptDetailResponse(d *service.ManuscriptDetail) manuscriptDetailResponse {
	resp := manuscriptDetailResponse{
		Manuscript:    toManuscriptResponse(&d.Manuscript),
		Assignments:   make([]assignmentResponse, len(d.Assignments)),
		Invitations:   make([]invitationResponse, len(d.Invitations)),
		AllowedEvents: d.AllowedEvents,
	}

	for i := range d.Assignments {
		resp.Assignments[i] = toAssignmentResponse(&d.Assignments[i])
	}

	for i := range d.Invitations {
		resp.Invitations[i] = toInvitationResponse(&d.Invitations[i])
	}

	if resp.AllowedEvents == nil {
		resp.AllowedEvents = []workflow.Event{}
	}

	return resp
}

type policyResponse struct {
	Stage          string  `json:"stage"`
	TimeLimitDays  int     `json:"time_limit_days"`
	ReminderDays   []int64 `json:"reminder_days"`
	EscalationDays []int64 `json:"escalation_days"`
	Default        bool    `json:"default"`
}

func toPolicyResponse(p policy.Policy) policyResponse {
	return policyResponse{
		Stage:          p.Stage,
		TimeLimitDays:  toDays(p.TimeLimit),
		ReminderDays:   toDaySlice(p.Reminders),
		EscalationDays: toDaySlice(p.Escalations),
		Default:        p.Default,
	}
}

func toDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func toDaySlice(ds []time.Duration) []int64 {
	result := make([]int64, len(ds))
	for i, d := range ds {
		result[i] = int64(toDays(d))
	}

	return result
}

type sweepRowError struct {
	Pass  string `json:"pass"`
	RowID string `json:"row_id,omitempty"`
	Error string `json:"error"`
}

type sweepResponse struct {
	StartedAt            time.Time       `json:"started_at"`
	RemindersProcessed   int             `json:"reminders_processed"`
	WithdrawalsProcessed int             `json:"withdrawals_processed"`
	ExpirationsProcessed int             `json:"expirations_processed"`
	Errors               []sweepRowError `json:"errors"`
}

func toSweepResponse(r sweep.Result) sweepResponse {
	resp := sweepResponse{
		StartedAt:            r.StartedAt,
		RemindersProcessed:   r.RemindersProcessed,
		WithdrawalsProcessed: r.WithdrawalsProcessed,
		ExpirationsProcessed: r.ExpirationsProcessed,
		Errors:               make([]sweepRowError, len(r.Errors)),
	}

	for i, e := range r.Errors {
		resp.Errors[i] = sweepRowError{Pass: string(e.Pass), RowID: e.RowID, Error: e.Err.Error()}
	}

	return resp
}
