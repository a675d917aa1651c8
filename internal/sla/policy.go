// Package sla maps ticket priorities to response-time budgets and derives
// a ticket's standing against its deadline.
package sla

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
)

// DefaultRiskWindow is how long before the deadline a ticket becomes AT_RISK.
const DefaultRiskWindow = 2 * time.Hour

// ConfigKeyPrefix prefixes the system_config keys holding per-priority hours.
const ConfigKeyPrefix = "sla.hours."

// Policy is the priority → hours table.
type Policy struct {
	Hours      map[domain.TicketPriority]int
	RiskWindow time.Duration
}

// DefaultPolicy returns the stock table: 4h/8h/24h/72h with a 2h risk window.
func DefaultPolicy() Policy {
	return Policy{
		Hours: map[domain.TicketPriority]int{
			domain.TicketPriorityCritical: 4,
			domain.TicketPriorityHigh:     8,
			domain.TicketPriorityMedium:   24,
			domain.TicketPriorityLow:      72,
		},
		RiskWindow: DefaultRiskWindow,
	}
}

// PolicyFromConfig builds the defaults from env configuration.
func PolicyFromConfig(cfg config.SLAConfig) Policy {
	p := DefaultPolicy()
	setPositive(p.Hours, domain.TicketPriorityCritical, cfg.CriticalHours)
	setPositive(p.Hours, domain.TicketPriorityHigh, cfg.HighHours)
	setPositive(p.Hours, domain.TicketPriorityMedium, cfg.MediumHours)
	setPositive(p.Hours, domain.TicketPriorityLow, cfg.LowHours)
	p.RiskWindow = cfg.RiskWindow()
	return p
}

func setPositive(table map[domain.TicketPriority]int, priority domain.TicketPriority, hours int) {
	if hours > 0 {
		table[priority] = hours
	}
}

// Clone returns a copy safe to mutate.
func (p Policy) Clone() Policy {
	out := Policy{Hours: make(map[domain.TicketPriority]int, len(p.Hours)), RiskWindow: p.RiskWindow}
	for k, v := range p.Hours {
		out.Hours[k] = v
	}
	return out
}

// HoursFor returns the budget for a priority. Unknown priorities get the LOW budget.
func (p Policy) HoursFor(priority domain.TicketPriority) int {
	if hours, ok := p.Hours[priority]; ok {
		return hours
	}
	if hours, ok := p.Hours[domain.TicketPriorityLow]; ok {
		return hours
	}
	return DefaultPolicy().Hours[domain.TicketPriorityLow]
}

// Deadline returns now + HoursFor(priority).
func (p Policy) Deadline(priority domain.TicketPriority, now time.Time) time.Time {
	return now.Add(time.Duration(p.HoursFor(priority)) * time.Hour)
}

func (p Policy) riskWindow() time.Duration {
	if p.RiskWindow <= 0 {
		return DefaultRiskWindow
	}
	return p.RiskWindow
}

// Standing computes the SLA status of a ticket at now.
//
// Terminal tickets keep their stored standing. Open tickets are BREACHED once
// the deadline has passed and AT_RISK inside the risk window; the result never
// improves on stored while the ticket is open.
func (p Policy) Standing(deadline time.Time, status domain.TicketStatus, stored domain.SLAStatus, now time.Time) domain.SLAStatus {
	if status.Terminal() {
		return stored
	}
	computed := domain.SLAOnTime
	remaining := deadline.Sub(now)
	switch {
	case remaining <= 0:
		computed = domain.SLABreached
	case remaining <= p.riskWindow():
		computed = domain.SLAAtRisk
	}
	if stored.Valid() && stored.Rank() > computed.Rank() {
		return stored
	}
	return computed
}

// Recompute is Standing applied to a ticket.
func (p Policy) Recompute(ticket *domain.Ticket, now time.Time) domain.SLAStatus {
	return p.Standing(ticket.SLADeadline, ticket.Status, ticket.SLAStatus, now)
}

// Entries renders the hour table as system_config rows.
func (p Policy) Entries() map[string]string {
	out := make(map[string]string, len(p.Hours))
	for priority, hours := range p.Hours {
		out[ConfigKeyPrefix+string(priority)] = strconv.Itoa(hours)
	}
	return out
}

// ApplyEntries overlays system_config rows onto the policy.
func (p Policy) ApplyEntries(entries []domain.ConfigEntry) (Policy, error) {
	out := p.Clone()
	for _, entry := range entries {
		if len(entry.Key) <= len(ConfigKeyPrefix) || entry.Key[:len(ConfigKeyPrefix)] != ConfigKeyPrefix {
			continue
		}
		priority := domain.TicketPriority(entry.Key[len(ConfigKeyPrefix):])
		if !priority.Valid() {
			continue
		}
		hours, err := strconv.Atoi(entry.Value)
		if err != nil || hours <= 0 {
			return p, fmt.Errorf("invalid sla hours for %s: %q", priority, entry.Value)
		}
		out.Hours[priority] = hours
	}
	return out, nil
}

// Source resolves the current policy. Implementations are consulted once per operation.
type Source interface {
	Policy(ctx context.Context) (Policy, error)
}

// StaticSource always returns the same policy.
type StaticSource Policy

// Policy implements Source.
func (s StaticSource) Policy(context.Context) (Policy, error) {
	return Policy(s).Clone(), nil
}
