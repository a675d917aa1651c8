package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
)

func TestAlertEmailEscapesContent(t *testing.T) {
	deviation := 104.3
	alert := domain.Alert{
		Severity:         domain.SeverityCritical,
		Category:         domain.CategoryBatteryLow,
		Title:            "Battery <script>",
		Description:      "drain detected",
		DeviationPercent: &deviation,
		CreatedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	msg, err := AlertEmail(alert, domain.User{Email: "ops@example.com", Name: "Ops"})
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "[CRITICAL] Battery <script>", msg.Subject)
	assert.Contains(t, msg.HTML, "#d32f2f")
	assert.Contains(t, msg.HTML, "104.3")
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestTicketEmail(t *testing.T) {
	msg, err := TicketEmail(domain.Ticket{TicketNumber: "TKT-202603-00001", Title: "x"}, "assigned", domain.User{Email: "a@b"})
	require.NoError(t, err)
	assert.Equal(t, "Ticket assigned: TKT-202603-00001", msg.Subject)
	assert.Contains(t, msg.HTML, "TKT-202603-00001")
}

func TestNewMailerSelection(t *testing.T) {
	logger := zap.NewNop()
	assert.IsType(t, &LogMailer{}, NewMailer(config.NotificationConfig{EmailProvider: "log"}, logger))
	assert.IsType(t, &LogMailer{}, NewMailer(config.NotificationConfig{EmailProvider: "sendgrid"}, logger))
	assert.IsType(t, &SendGridMailer{}, NewMailer(config.NotificationConfig{EmailProvider: "SendGrid", SendGridAPIKey: "key"}, logger))

	assert.NoError(t, NewLogMailer(logger).Send(context.Background(), Message{To: "x"}))
}
