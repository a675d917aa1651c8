package handlers

import (
	"github.com/siteops/alertdesk/internal/api/dto"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/sla"
)

func alertResponse(alert *domain.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:               alert.ID,
		SiteID:           alert.SiteID,
		UsageID:          alert.UsageID,
		Category:         string(alert.Category),
		Severity:         string(alert.Severity),
		Status:           string(alert.Status),
		Title:            alert.Title,
		Description:      alert.Description,
		DetectedValue:    alert.DetectedValue,
		ExpectedValue:    alert.ExpectedValue,
		Threshold:        alert.Threshold,
		DeviationPercent: alert.DeviationPercent,
		AcknowledgedBy:   alert.AcknowledgedBy,
		AcknowledgedAt:   alert.AcknowledgedAt,
		ResolvedBy:       alert.ResolvedBy,
		ResolvedAt:       alert.ResolvedAt,
		Resolution:       alert.Resolution,
		CreatedAt:        alert.CreatedAt,
		UpdatedAt:        alert.UpdatedAt,
	}
}

func alertResponses(alerts []domain.Alert) []dto.AlertResponse {
	resp := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		resp = append(resp, alertResponse(&alerts[i]))
	}
	return resp
}

func alertDetail(alert *domain.Alert, ticket *domain.Ticket) dto.AlertDetailResponse {
	resp := dto.AlertDetailResponse{AlertResponse: alertResponse(alert)}
	if ticket != nil {
		summary := ticketSummary(ticket)
		resp.Ticket = &summary
	}
	return resp
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		AlertID:      ticket.AlertID,
		Title:        ticket.Title,
		Priority:     string(ticket.Priority),
		Status:       string(ticket.Status),
		AssignedToID: ticket.AssignedToID,
		SLADeadline:  ticket.SLADeadline,
		SLAStatus:    string(ticket.SLAStatus),
		Category:     ticket.Category,
		Tags:         tags,
		ResolvedAt:   ticket.ResolvedAt,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	resp := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, ticketSummary(&tickets[i]))
	}
	return resp
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
		AssignedAt:    ticket.AssignedAt,
		ClosedAt:      ticket.ClosedAt,
		Resolution:    ticket.Resolution,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.TicketComment, history []domain.TicketHistory) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(ticket),
		Comments:       commentResponses(comments),
		History:        historyResponses(history),
	}
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		UserID:     comment.UserID,
		Comment:    comment.Comment,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}

func commentResponses(comments []domain.TicketComment) []dto.CommentResponse {
	resp := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, commentResponse(&comments[i]))
	}
	return resp
}

func historyResponses(entries []domain.TicketHistory) []dto.HistoryResponse {
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Action:    string(entry.Action),
			FieldName: entry.FieldName,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

func notificationResponses(records []domain.Notification) []dto.NotificationResponse {
	resp := make([]dto.NotificationResponse, 0, len(records))
	for i := range records {
		resp = append(resp, notificationResponse(&records[i]))
	}
	return resp
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		AlertID:   n.AlertID,
		TicketID:  n.TicketID,
		Type:      string(n.Type),
		Channel:   string(n.Channel),
		Title:     n.Title,
		Message:   n.Message,
		Status:    string(n.Status),
		SentAt:    n.SentAt,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i]))
	}
	return resp
}

func tokenResponse(pair domain.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		TokenType:        "Bearer",
	}
}

func slaConfigResponse(policy sla.Policy) dto.SLAConfigResponse {
	hours := make(map[string]int, len(policy.Hours))
	for priority, h := range policy.Hours {
		hours[string(priority)] = h
	}
	return dto.SLAConfigResponse{
		Hours:             hours,
		RiskWindowMinutes: int(policy.RiskWindow.Minutes()),
	}
}
