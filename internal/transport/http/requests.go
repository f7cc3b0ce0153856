package http

type submitManuscriptRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=500"`
	AuthorID string `json:"author_id" validate:"required,custom_id,max=100"`
}

type applyEventRequest struct {
	Event string `json:"event" validate:"required,oneof=submit screen request_reviewers decide_accept decide_reject decide_revise submit_revision publish withdraw"`
}

type assignEditorRequest struct {
	EditorID    string `json:"editor_id" validate:"required,custom_id,max=100"`
	EditorEmail string `json:"editor_email" validate:"required,email"`
	AssignedBy  string `json:"assigned_by" validate:"required,custom_id,max=100"`
}

type assignmentResponseRequest struct {
	Action           string `json:"action" validate:"required,oneof=accept decline"`
	ConflictDeclared bool   `json:"conflict_declared"`
	ConflictDetails  string `json:"conflict_details" validate:"max=2000"`
	DeclineReason    string `json:"decline_reason" validate:"max=2000"`
	Comments         string `json:"comments" validate:"max=2000"`
}

type inviteReviewerRequest struct {
	ReviewerID    string `json:"reviewer_id" validate:"required,custom_id,max=100"`
	ReviewerEmail string `json:"reviewer_email" validate:"required,email"`
	ReviewerName  string `json:"reviewer_name" validate:"required,max=200"`
	InvitedBy     string `json:"invited_by" validate:"required,custom_id,max=100"`
}

type invitationResponseRequest struct {
	Action        string `json:"action" validate:"required,oneof=accept decline"`
	DeclineReason string `json:"decline_reason" validate:"max=2000"`
}

type putPolicyRequest struct {
	TimeLimitDays  int     `json:"time_limit_days" validate:"required,min=1,max=365"`
	ReminderDays   []int64 `json:"reminder_days" validate:"omitempty,dive,min=0,max=365"`
	EscalationDays []int64 `json:"escalation_days" validate:"omitempty,dive,min=1,max=365"`
	IsActive       *bool   `json:"is_active" validate:"required"`
}
