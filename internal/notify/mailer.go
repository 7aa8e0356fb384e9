// Package notify sends e-mail and publishes domain events.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 20 * time.Second

// Message is one outbound e-mail.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Tag     string
}

// Mailer delivers e-mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailConfig selects and configures the Mailgun backend.
type MailConfig struct {
	Domain      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// NewMailer returns a Mailgun mailer, or a log-only mailer when the Mailgun
// settings are incomplete.
func NewMailer(cfg MailConfig) Mailer {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.SenderEmail == "" {
		slog.Warn("Mailgun configuration incomplete, e-mails will only be logged")
		return LogMailer{}
	}
	slog.Info("Mailgun client initialized", "domain", cfg.Domain)
	return &MailgunMailer{
		mg:   mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		from: formatFrom(cfg.SenderName, cfg.SenderEmail),
	}
}

func formatFrom(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// MailgunMailer sends through the Mailgun HTTP API.
type MailgunMailer struct {
	mg   mailgun.Mailgun
	from string
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if msg.Tag != "" {
		if err := message.AddTag(msg.Tag); err != nil {
			return fmt.Errorf("tag message: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, id, err := m.mg.Send(ctx, message)
	if err != nil {
		slog.Error("Mailgun send failed", "error", err, "to", msg.To, "mailgun_resp", resp)
		return fmt.Errorf("mailgun send: %w", err)
	}
	slog.Info("E-mail sent", "to", msg.To, "tag", msg.Tag, "id", id)
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "E-mail (not sent, mailer not configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", strings.TrimSpace(msg.Text),
	)
	return nil
}
