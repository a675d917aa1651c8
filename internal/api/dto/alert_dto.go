package dto

import "time"

// AlertCreateRequest payload for POST /alerts.
type AlertCreateRequest struct {
	SiteID           *string  `json:"site_id" validate:"omitempty,max=64"`
	UsageID          *string  `json:"usage_id" validate:"omitempty,max=64"`
	Category         string   `json:"category" validate:"required"`
	Severity         string   `json:"severity" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW INFO"`
	Title            string   `json:"title" validate:"required,max=255"`
	Description      string   `json:"description"`
	DetectedValue    *float64 `json:"detected_value"`
	ExpectedValue    *float64 `json:"expected_value"`
	Threshold        *float64 `json:"threshold"`
	DeviationPercent *float64 `json:"deviation_percent"`
}

// AlertUpdateRequest payload for PATCH /alerts/:id.
type AlertUpdateRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=OPEN ACKNOWLEDGED RESOLVED CLOSED"`
	Resolution  *string `json:"resolution"`
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

// AlertResolveRequest payload for POST /alerts/:id/resolve.
type AlertResolveRequest struct {
	Resolution string `json:"resolution" validate:"required"`
}

// AlertResponse is the API view of an alert.
type AlertResponse struct {
	ID               string     `json:"id"`
	SiteID           *string    `json:"site_id,omitempty"`
	UsageID          *string    `json:"usage_id,omitempty"`
	Category         string     `json:"category"`
	Severity         string     `json:"severity"`
	Status           string     `json:"status"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	DetectedValue    *float64   `json:"detected_value,omitempty"`
	ExpectedValue    *float64   `json:"expected_value,omitempty"`
	Threshold        *float64   `json:"threshold,omitempty"`
	DeviationPercent *float64   `json:"deviation_percent,omitempty"`
	AcknowledgedBy   *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedBy       *string    `json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	Resolution       *string    `json:"resolution,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AlertDetailResponse adds the escalated ticket, when one exists.
type AlertDetailResponse struct {
	AlertResponse
	Ticket *TicketSummary `json:"ticket"`
}
