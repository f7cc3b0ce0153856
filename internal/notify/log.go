package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogDispatcher renders messages and writes them to the log instead of
// sending them. Used in the local environment.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, templateID TemplateID, recipient string, vars map[string]string) (string, error) {
	subject, body, err := Render(templateID, vars)
	if err != nil {
		return "", err
	}

	messageID := uuid.NewString()

	d.log.Info("notification",
		slog.String("message_id", messageID),
		slog.String("template", string(templateID)),
		slog.String("to", recipient),
		slog.String("subject", subject),
		slog.String("body", body),
	)

	return messageID, nil
}
