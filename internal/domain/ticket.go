package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// Valid reports whether the status is known.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress, TicketStatusPending,
		TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether SLA tracking has stopped for the status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed || s == TicketStatusCancelled
}

// OpenTicketStatuses lists the statuses where the SLA clock is running.
var OpenTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusPending,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "CRITICAL"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityLow      TicketPriority = "LOW"
)

// TicketPriorities lists every priority, most urgent first.
var TicketPriorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// SLAStatus is the derived standing of a ticket against its deadline.
type SLAStatus string

const (
	SLAOnTime   SLAStatus = "ON_TIME"
	SLAAtRisk   SLAStatus = "AT_RISK"
	SLABreached SLAStatus = "BREACHED"
)

// Rank orders standings from best to worst.
func (s SLAStatus) Rank() int {
	switch s {
	case SLAAtRisk:
		return 1
	case SLABreached:
		return 2
	default:
		return 0
	}
}

// Valid reports whether the standing is known.
func (s SLAStatus) Valid() bool {
	return s == SLAOnTime || s == SLAAtRisk || s == SLABreached
}

// Better returns the standings ranked below s.
func (s SLAStatus) Better() []SLAStatus {
	var out []SLAStatus
	for _, candidate := range []SLAStatus{SLAOnTime, SLAAtRisk, SLABreached} {
		if candidate.Rank() < s.Rank() {
			out = append(out, candidate)
		}
	}
	return out
}

// Ticket tracks remediation of one alert or a manually opened issue.
type Ticket struct {
	ID           string
	TicketNumber string
	AlertID      *string
	Title        string
	Description  string
	Priority     TicketPriority
	Status       TicketStatus
	AssignedToID *string
	AssignedAt   *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	Resolution   *string
	SLADeadline  time.Time
	SLAStatus    SLAStatus
	Category     string
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
