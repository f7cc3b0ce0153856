// Package notify renders and transmits workflow notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

type TemplateID string

const (
	TemplateReviewerInvitation      TemplateID = "reviewer_invitation"
	TemplateReviewerReminder        TemplateID = "reviewer_reminder"
	TemplateReviewerWithdrawn       TemplateID = "reviewer_withdrawn"
	TemplateInvitationResponse      TemplateID = "invitation_response"
	TemplateEditorAssignment        TemplateID = "editor_assignment"
	TemplateEditorAssignmentExpired TemplateID = "editor_assignment_expired"
	TemplateAssignmentResponse      TemplateID = "assignment_response"
)

// Dispatcher sends one message. Retry and queueing are the implementation's
// concern; callers treat a returned error as a failed send.
type Dispatcher interface {
	Dispatch(ctx context.Context, templateID TemplateID, recipient string, vars map[string]string) (messageID string, err error)
}

type message struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[TemplateID]message{
	TemplateReviewerInvitation: mustMessage(
		"Invitation to review manuscript {{.manuscript_title}}",
		`Dear {{.reviewer_name}},

You are invited to review the manuscript "{{.manuscript_title}}".
Please respond by {{.response_deadline}}:
{{.response_url}}
`),
	TemplateReviewerReminder: mustMessage(
		"Reminder: review invitation for {{.manuscript_title}}",
		`Dear {{.reviewer_name}},

We have not yet received your response to our invitation to review "{{.manuscript_title}}".
Please respond by {{.final_deadline}}, after which the invitation will be withdrawn:
{{.response_url}}
`),
	TemplateReviewerWithdrawn: mustMessage(
		"Review invitation withdrawn: {{.manuscript_title}}",
		`Dear {{.reviewer_name}},

As we did not receive a response, our invitation to review "{{.manuscript_title}}" has been withdrawn.
`),
	TemplateInvitationResponse: mustMessage(
		"Reviewer response ({{.action}}): {{.manuscript_title}}",
		`Reviewer {{.reviewer_name}} responded "{{.action}}" to the invitation for "{{.manuscript_title}}".
{{if .decline_reason}}Reason: {{.decline_reason}}
{{end}}`),
	TemplateEditorAssignment: mustMessage(
		"Editor assignment: {{.manuscript_title}}",
		`You have been asked to handle the manuscript "{{.manuscript_title}}".
Please accept or decline by {{.deadline}}.
`),
	TemplateEditorAssignmentExpired: mustMessage(
		"Editor assignment expired: {{.manuscript_title}}",
		`Editor {{.editor_id}} did not respond to the assignment for "{{.manuscript_title}}" by {{.deadline}}.
The manuscript is back in the editor assignment queue.
`),
	TemplateAssignmentResponse: mustMessage(
		"Editor assignment response ({{.action}}): {{.manuscript_title}}",
		`Editor {{.editor_id}} responded "{{.action}}" to the assignment for "{{.manuscript_title}}".
{{if .conflict_details}}Declared conflict: {{.conflict_details}}
{{end}}{{if .decline_reason}}Reason: {{.decline_reason}}
{{end}}`),
}

func mustMessage(subject, body string) message {
	return message{
		subject: template.Must(template.New("subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New("body").Option("missingkey=zero").Parse(body)),
	}
}

// Render produces the subject and plain-text body of templateID.
func Render(templateID TemplateID, vars map[string]string) (string, string, error) {
	const op = "internal.notify.Render"

	msg, ok := templates[templateID]
	if !ok {
		return "", "", fmt.Errorf("%s: unknown template '%s'", op, templateID)
	}

	var subject, body bytes.Buffer

	if err := msg.subject.Execute(&subject, vars); err != nil {
		return "", "", fmt.Errorf("%s: failed to render subject: %w", op, err)
	}

	if err := msg.body.Execute(&body, vars); err != nil {
		return "", "", fmt.Errorf("%s: failed to render body: %w", op, err)
	}

	return subject.String(), body.String(), nil
}
