package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority TicketChangeType = "PRIORITY_CHANGE"
	ChangeTypeSla      TicketChangeType = "SLA_CHANGE"
)

// TicketHistory is an immutable audit trail entry. Every validated
// transition writes one so status changes always carry their
// justification text.
type TicketHistory struct {
	ID          string
	TicketID    string
	ChangedByID *string
	ChangedRole *Role
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
