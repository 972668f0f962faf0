package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// Terminal reports whether no further transition can leave the status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency tiers. A ticket keeps
// TicketPriorityNotSet until a manager attaches a tier at assignment.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNotSet TicketPriority = "NOT_SET"
)

// Rank orders priorities for queue sorting; higher is more urgent.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 1
	default:
		return 0
	}
}

// Ticket is the aggregate for customer-reported issues. Status moves
// only through the lifecycle engine; SlaDueTime is present exactly
// when AssignedAt is.
type Ticket struct {
	ID                 string
	ExternalKey        string
	CustomerID         string
	CategoryID         *string
	Description        string
	Status             TicketStatus
	Priority           TicketPriority
	AssignedManagerID  *string
	AssignedEngineerID *string
	AssignedAt         *time.Time
	SlaDueTime         *time.Time
	ResolutionSummary  *string
	ReopenReason       *string
	AiResolution       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ClosedAt           *time.Time
}

// Open reports whether the ticket still counts against engineer load.
func (t *Ticket) Open() bool {
	return t.Status != TicketStatusResolved && t.Status != TicketStatusClosed
}
