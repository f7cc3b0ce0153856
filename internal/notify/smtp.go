package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/YusovID/editorial-workflow/internal/config"
	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"
)

// sender is the part of *mail.Dialer the dispatcher needs.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPDispatcher struct {
	sender sender
	from   string
	domain string
	log    *slog.Logger
}

func NewSMTPDispatcher(cfg config.SMTP, log *slog.Logger) *SMTPDispatcher {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.Timeout = cfg.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec // opt-in for local relays
	}

	return newSMTPDispatcher(d, cfg.From, log)
}

func newSMTPDispatcher(s sender, from string, log *slog.Logger) *SMTPDispatcher {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 {
		domain = strings.Trim(from[at+1:], "> ")
	}

	return &SMTPDispatcher{
		sender: s,
		from:   from,
		domain: domain,
		log:    log,
	}
}

func (d *SMTPDispatcher) Dispatch(ctx context.Context, templateID TemplateID, recipient string, vars map[string]string) (string, error) {
	const op = "internal.notify.smtp.Dispatch"

	if recipient == "" {
		return "", fmt.Errorf("%s: empty recipient", op)
	}

	subject, body, err := Render(templateID, vars)
	if err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), d.domain)

	m := mail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", body)

	// DialAndSend has no context; the dialer timeout bounds it and the
	// select bounds the caller.
	done := make(chan error, 1)
	go func() {
		done <- d.sender.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("%s: failed to send: %w", op, err)
		}
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}

	d.log.Debug("notification sent",
		slog.String("op", op),
		slog.String("template", string(templateID)),
		slog.String("message_id", messageID),
	)

	return messageID, nil
}
