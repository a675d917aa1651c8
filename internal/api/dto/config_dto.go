package dto

// SLAConfigRequest payload for PUT /config/sla. Keys are ticket priorities.
type SLAConfigRequest struct {
	Hours map[string]int `json:"hours" validate:"required,min=1,dive,keys,oneof=CRITICAL HIGH MEDIUM LOW,endkeys,gt=0"`
}

// SLAConfigResponse is the effective response-time table.
type SLAConfigResponse struct {
	Hours             map[string]int `json:"hours"`
	RiskWindowMinutes int            `json:"risk_window_minutes"`
}

// PageMeta accompanies list responses.
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
