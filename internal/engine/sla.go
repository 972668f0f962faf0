package engine

import (
	"fmt"
	"time"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// SlaState classifies how a ticket stands against its deadline.
type SlaState string

const (
	SlaOnTrack    SlaState = "ON_TRACK"
	SlaAlert      SlaState = "ALERT"
	SlaBreached   SlaState = "BREACHED"
	SlaNotStarted SlaState = "NOT_STARTED"
)

// Urgency orders SLA states for queue sorting; higher is more urgent.
func (s SlaState) Urgency() int {
	switch s {
	case SlaBreached:
		return 3
	case SlaAlert:
		return 2
	case SlaOnTrack:
		return 1
	default:
		return 0
	}
}

// SlaPolicy maps priority tiers to resolution durations. The table is
// operational configuration, injected rather than compiled in.
type SlaPolicy struct {
	Durations   map[domain.TicketPriority]time.Duration
	AlertWindow time.Duration
}

// DefaultSlaPolicy returns the stock policy table.
func DefaultSlaPolicy() SlaPolicy {
	return SlaPolicy{
		Durations: map[domain.TicketPriority]time.Duration{
			domain.TicketPriorityHigh:   4 * time.Hour,
			domain.TicketPriorityMedium: 24 * time.Hour,
			domain.TicketPriorityLow:    72 * time.Hour,
		},
		AlertWindow: 30 * time.Minute,
	}
}

// Validate rejects tables where a higher tier gets more time than a
// lower one, or where any duration is non-positive.
func (p SlaPolicy) Validate() error {
	high := p.Durations[domain.TicketPriorityHigh]
	medium := p.Durations[domain.TicketPriorityMedium]
	low := p.Durations[domain.TicketPriorityLow]
	if high <= 0 || medium <= 0 || low <= 0 {
		return fmt.Errorf("sla durations must be positive")
	}
	if high > medium || medium > low {
		return fmt.Errorf("sla durations must be monotonic: HIGH <= MEDIUM <= LOW")
	}
	if p.AlertWindow <= 0 {
		return fmt.Errorf("sla alert window must be positive")
	}
	return nil
}

// Duration returns the resolution window for a priority tier.
func (p SlaPolicy) Duration(priority domain.TicketPriority) time.Duration {
	if d, ok := p.Durations[priority]; ok {
		return d
	}
	return p.Durations[domain.TicketPriorityMedium]
}

// DueTime derives the deadline from the assignment instant.
func (p SlaPolicy) DueTime(priority domain.TicketPriority, assignedAt time.Time) time.Time {
	return assignedAt.Add(p.Duration(priority))
}

// Remaining returns the time left until due, clamped at zero.
func Remaining(now, due time.Time) time.Duration {
	if !now.Before(due) {
		return 0
	}
	return due.Sub(now)
}

// Classify buckets the remaining time: breached at zero, alert inside
// the warning window, on track otherwise.
func (p SlaPolicy) Classify(now, due time.Time) SlaState {
	remaining := Remaining(now, due)
	switch {
	case remaining == 0:
		return SlaBreached
	case remaining <= p.AlertWindow:
		return SlaAlert
	default:
		return SlaOnTrack
	}
}

// SlaSnapshot is the read-only countdown view served to pollers.
type SlaSnapshot struct {
	State     SlaState
	Remaining time.Duration
	DueTime   *time.Time
}

// Snapshot evaluates a ticket's SLA standing at the given instant.
// Unassigned tickets have no clock and report NOT_STARTED.
func (p SlaPolicy) Snapshot(t *domain.Ticket, now time.Time) SlaSnapshot {
	if t.AssignedAt == nil || t.SlaDueTime == nil {
		return SlaSnapshot{State: SlaNotStarted}
	}
	return SlaSnapshot{
		State:     p.Classify(now, *t.SlaDueTime),
		Remaining: Remaining(now, *t.SlaDueTime),
		DueTime:   t.SlaDueTime,
	}
}
