package events

import (
	"time"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventSlaStateChanged     EventType = "sla_state_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id,omitempty"`
	Role domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerID  string  `json:"customer_id"`
	CategoryID  *string `json:"category_id,omitempty"`
	ExternalKey string  `json:"external_key"`
	Escalated   bool    `json:"escalated,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	EngineerID string                `json:"engineer_id"`
	ManagerID  string                `json:"manager_id"`
	Priority   domain.TicketPriority `json:"priority"`
	SlaDueTime time.Time             `json:"sla_due_time"`
	Auto       bool                  `json:"auto,omitempty"`
}

// SlaStateChangedPayload payload. Advisory only: the monitor never
// moves the ticket's lifecycle status.
type SlaStateChangedPayload struct {
	OldState   engine.SlaState     `json:"old_state"`
	NewState   engine.SlaState     `json:"new_state"`
	Status     domain.TicketStatus `json:"status"`
	SlaDueTime *time.Time          `json:"sla_due_time,omitempty"`
}
