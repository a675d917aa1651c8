package domain

import (
	"strings"
	"time"
)

// AlertCategory classifies what the detector observed.
type AlertCategory string

const (
	CategoryConsumptionAnomaly AlertCategory = "CONSUMPTION_ANOMALY"
	CategoryBillingMismatch    AlertCategory = "BILLING_MISMATCH"
	CategorySettlementInvalid  AlertCategory = "SETTLEMENT_INVALID"
	CategoryBackupCritical     AlertCategory = "BACKUP_CRITICAL"
	CategoryBatteryLow         AlertCategory = "BATTERY_LOW"
	CategoryOutagePredicted    AlertCategory = "OUTAGE_PREDICTED"
	CategoryLicenseExpired     AlertCategory = "LICENSE_EXPIRED"
	CategoryMonitoringMismatch AlertCategory = "MONITORING_MISMATCH"
)

var alertCategoryAliases = map[string]AlertCategory{
	"POWER_CONSUMPTION_ANOMALY": CategoryConsumptionAnomaly,
}

// ParseAlertCategory normalises and validates a category name.
func ParseAlertCategory(raw string) (AlertCategory, bool) {
	val := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := alertCategoryAliases[val]; ok {
		return alias, true
	}
	c := AlertCategory(val)
	switch c {
	case CategoryConsumptionAnomaly, CategoryBillingMismatch, CategorySettlementInvalid,
		CategoryBackupCritical, CategoryBatteryLow, CategoryOutagePredicted,
		CategoryLicenseExpired, CategoryMonitoringMismatch:
		return c, true
	}
	return "", false
}

// AlertSeverity ranks alerts.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityLow      AlertSeverity = "LOW"
	SeverityInfo     AlertSeverity = "INFO"
)

// Valid reports whether the severity is known.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// AlertStatus is the alert lifecycle state. Transitions only move forward.
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "OPEN"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
	AlertStatusClosed       AlertStatus = "CLOSED"
)

var alertStatusRank = map[AlertStatus]int{
	AlertStatusOpen:         0,
	AlertStatusAcknowledged: 1,
	AlertStatusResolved:     2,
	AlertStatusClosed:       3,
}

// Valid reports whether the status is known.
func (s AlertStatus) Valid() bool {
	_, ok := alertStatusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	from, ok := alertStatusRank[s]
	if !ok {
		return false
	}
	to, ok := alertStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Alert is a detected anomaly or condition requiring attention.
type Alert struct {
	ID               string
	SiteID           *string
	UsageID          *string
	Category         AlertCategory
	Severity         AlertSeverity
	Status           AlertStatus
	Title            string
	Description      string
	DetectedValue    *float64
	ExpectedValue    *float64
	Threshold        *float64
	DeviationPercent *float64
	AcknowledgedBy   *string
	AcknowledgedAt   *time.Time
	ResolvedBy       *string
	ResolvedAt       *time.Time
	Resolution       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
