// Package notify delivers email for the notification service.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/config"
)

// Message is a rendered email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer picks the provider configured in cfg. Unknown providers fall
// back to logging.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			logger.Warn("sendgrid selected without SENDGRID_API_KEY; emails will be logged")
			return &LogMailer{logger: logger}
		}
		return &SendGridMailer{
			client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
			from:     cfg.EmailFrom,
			fromName: cfg.EmailFromName,
		}
	default:
		return &LogMailer{logger: logger}
	}
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// Send implements Mailer.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.fromName, m.from)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email via sendgrid: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// LogMailer records emails in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email suppressed",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
