package domain

import (
	"time"

	"github.com/lib/pq"
)

type ManuscriptStatus string

const (
	StatusSubmitted                 ManuscriptStatus = "submitted"
	StatusEditorialAssistantReview  ManuscriptStatus = "editorial_assistant_review"
	StatusAssociateEditorAssignment ManuscriptStatus = "associate_editor_assignment"
	StatusAssociateEditorReview     ManuscriptStatus = "associate_editor_review"
	StatusReviewerAssignment        ManuscriptStatus = "reviewer_assignment"
	StatusUnderReview               ManuscriptStatus = "under_review"
	StatusRevisionRequested         ManuscriptStatus = "revision_requested"
	StatusRevisionSubmitted         ManuscriptStatus = "revision_submitted"
	StatusAccepted                  ManuscriptStatus = "accepted"
	StatusRejected                  ManuscriptStatus = "rejected"
	StatusPublished                 ManuscriptStatus = "published"
	StatusWithdrawn                 ManuscriptStatus = "withdrawn"
)

// AllStatuses lists every manuscript status in workflow order.
var AllStatuses = []ManuscriptStatus{
	StatusSubmitted,
	StatusEditorialAssistantReview,
	StatusAssociateEditorAssignment,
	StatusAssociateEditorReview,
	StatusReviewerAssignment,
	StatusUnderReview,
	StatusRevisionRequested,
	StatusRevisionSubmitted,
	StatusAccepted,
	StatusRejected,
	StatusPublished,
	StatusWithdrawn,
}

func (s ManuscriptStatus) IsTerminal() bool {
	return s == StatusPublished || s == StatusRejected || s == StatusWithdrawn
}

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentDeclined AssignmentStatus = "declined"
	AssignmentExpired  AssignmentStatus = "expired"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationWithdrawn InvitationStatus = "withdrawn"
)

type ResponseAction string

const (
	ActionAccept  ResponseAction = "accept"
	ActionDecline ResponseAction = "decline"
)

type Manuscript struct {
	ID          string           `db:"id"`
	Title       string           `db:"title"`
	AuthorID    string           `db:"author_id"`
	Status      ManuscriptStatus `db:"status"`
	SubmittedAt time.Time        `db:"submitted_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
	EditorID    *string          `db:"editor_id"`
	ReviewerIDs pq.StringArray   `db:"reviewer_ids"`
}

func (m *Manuscript) HasEditor() bool {
	return m.EditorID != nil && *m.EditorID != ""
}

func (m *Manuscript) HasReviewer(reviewerID string) bool {
	for _, id := range m.ReviewerIDs {
		if id == reviewerID {
			return true
		}
	}

	return false
}

// EditorAssignment rows are append-only: a response or an expiry mutates the
// row once, nothing deletes it.
type EditorAssignment struct {
	ID               string           `db:"id"`
	ManuscriptID     string           `db:"manuscript_id"`
	EditorID         string           `db:"editor_id"`
	EditorEmail      string           `db:"editor_email"`
	AssignedBy       string           `db:"assigned_by"`
	AssignedAt       time.Time        `db:"assigned_at"`
	Deadline         time.Time        `db:"deadline"`
	Status           AssignmentStatus `db:"status"`
	ResponseAt       *time.Time       `db:"response_at"`
	ConflictDeclared bool             `db:"conflict_declared"`
	ConflictDetails  *string          `db:"conflict_details"`
	DeclineReason    *string          `db:"decline_reason"`
	Comments         *string          `db:"comments"`
}

type ReviewerInvitation struct {
	ID                string           `db:"id"`
	ManuscriptID      string           `db:"manuscript_id"`
	ReviewerID        string           `db:"reviewer_id"`
	ReviewerEmail     string           `db:"reviewer_email"`
	ReviewerName      string           `db:"reviewer_name"`
	InvitedBy         string           `db:"invited_by"`
	InvitedAt         time.Time        `db:"invited_at"`
	ResponseDeadline  time.Time        `db:"response_deadline"`
	ReviewDeadline    *time.Time       `db:"review_deadline"`
	Status            InvitationStatus `db:"status"`
	ResponseAt        *time.Time       `db:"response_at"`
	FirstReminderSent *time.Time       `db:"first_reminder_sent"`
	ReminderClaimedAt *time.Time       `db:"reminder_claimed_at"`
	FinalReminderSent *time.Time       `db:"final_reminder_sent"`
	WithdrawnAt       *time.Time       `db:"withdrawn_at"`
	ReviewSubmittedAt *time.Time       `db:"review_submitted_at"`
	InvitationToken   string           `db:"invitation_token"`
	DeclineReason     *string          `db:"decline_reason"`
}

// WorkflowTimeLimit is the persisted per-stage deadline policy.
type WorkflowTimeLimit struct {
	Stage          string        `db:"stage"`
	TimeLimitDays  int           `db:"time_limit_days"`
	ReminderDays   pq.Int64Array `db:"reminder_days"`
	EscalationDays pq.Int64Array `db:"escalation_days"`
	IsActive       bool          `db:"is_active"`
}
