package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/siteops/alertdesk/internal/domain"
)

var severityColors = map[domain.AlertSeverity]string{
	domain.SeverityCritical: "#d32f2f",
	domain.SeverityHigh:     "#f57c00",
	domain.SeverityMedium:   "#fbc02d",
	domain.SeverityLow:      "#388e3c",
	domain.SeverityInfo:     "#1976d2",
}

var alertEmail = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto;">
    <div style="background-color: {{.Color}}; color: white; padding: 20px;">
      <h2>Alert: {{.Alert.Title}}</h2>
    </div>
    <div style="background-color: #f9f9f9; padding: 20px; border: 1px solid #ddd;">
      <p><b>Severity:</b> {{.Alert.Severity}}</p>
      <p><b>Category:</b> {{.Alert.Category}}</p>
      <p><b>Description:</b><br/>{{.Alert.Description}}</p>
      {{with .Detected}}<p><b>Detected value:</b> {{.}}</p>{{end}}
      {{with .Expected}}<p><b>Expected value:</b> {{.}}</p>{{end}}
      {{with .Deviation}}<p><b>Deviation:</b> {{.}}%</p>{{end}}
      <p><b>Created at:</b> {{.CreatedAt}}</p>
    </div>
    <p style="font-size: 12px; color: #666;">Automated notification. Please do not reply.</p>
  </div>
</body>
</html>`))

var ticketEmail = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto;">
    <div style="background-color: #4CAF50; color: white; padding: 20px;">
      <h2>Ticket {{.Action}}: {{.Ticket.TicketNumber}}</h2>
    </div>
    <div style="background-color: #f9f9f9; padding: 20px; border: 1px solid #ddd;">
      <p><b>Title:</b> {{.Ticket.Title}}</p>
      <p><b>Priority:</b> {{.Ticket.Priority}}</p>
      <p><b>Status:</b> {{.Ticket.Status}}</p>
      <p><b>Description:</b><br/>{{.Ticket.Description}}</p>
      <p><b>SLA deadline:</b> {{.Deadline}}</p>
    </div>
  </div>
</body>
</html>`))

// AlertEmail renders the alert notification for one recipient.
func AlertEmail(alert domain.Alert, to domain.User) (Message, error) {
	color, ok := severityColors[alert.Severity]
	if !ok {
		color = "#666"
	}
	var buf bytes.Buffer
	err := alertEmail.Execute(&buf, struct {
		Alert     domain.Alert
		Color     string
		Detected  string
		Expected  string
		Deviation string
		CreatedAt string
	}{
		Alert:     alert,
		Color:     color,
		Detected:  formatValue(alert.DetectedValue, "%g"),
		Expected:  formatValue(alert.ExpectedValue, "%g"),
		Deviation: formatValue(alert.DeviationPercent, "%.1f"),
		CreatedAt: alert.CreatedAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render alert email: %w", err)
	}
	return Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: fmt.Sprintf("[%s] %s", alert.Severity, alert.Title),
		Text:    fmt.Sprintf("%s alert: %s\n\n%s", alert.Severity, alert.Title, alert.Description),
		HTML:    buf.String(),
	}, nil
}

// TicketEmail renders a ticket notification; action is e.g. "assigned".
func TicketEmail(ticket domain.Ticket, action string, to domain.User) (Message, error) {
	var buf bytes.Buffer
	err := ticketEmail.Execute(&buf, struct {
		Ticket   domain.Ticket
		Action   string
		Deadline string
	}{ticket, action, ticket.SLADeadline.UTC().Format(time.RFC1123)})
	if err != nil {
		return Message{}, fmt.Errorf("render ticket email: %w", err)
	}
	return Message{
		To:      to.Email,
		ToName:  to.Name,
		Subject: fmt.Sprintf("Ticket %s: %s", action, ticket.TicketNumber),
		Text:    fmt.Sprintf("Ticket %s %s: %s", ticket.TicketNumber, action, ticket.Title),
		HTML:    buf.String(),
	}, nil
}

func formatValue(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}
