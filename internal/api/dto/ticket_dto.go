package dto

import (
	"time"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id,omitempty"`
}

// AssignTicketRequest payload for manual assignment.
type AssignTicketRequest struct {
	EngineerID string                `json:"engineer_id"`
	Priority   domain.TicketPriority `json:"priority"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionSummary string `json:"resolution_summary"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	Reason string `json:"reason"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	CategoryID  *string               `json:"category_id,omitempty"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	SlaState    engine.SlaState       `json:"sla_state"`
	SlaDueTime  *time.Time            `json:"sla_due_time,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                 string                  `json:"id"`
	ExternalKey        string                  `json:"external_key"`
	CustomerID         string                  `json:"customer_id"`
	CategoryID         *string                 `json:"category_id,omitempty"`
	Description        string                  `json:"description"`
	Status             domain.TicketStatus     `json:"status"`
	Priority           domain.TicketPriority   `json:"priority"`
	AssignedManagerID  *string                 `json:"assigned_manager_id,omitempty"`
	AssignedEngineerID *string                 `json:"assigned_engineer_id,omitempty"`
	AssignedAt         *time.Time              `json:"assigned_at,omitempty"`
	Sla                SlaSnapshotResponse     `json:"sla"`
	ResolutionSummary  *string                 `json:"resolution_summary,omitempty"`
	ReopenReason       *string                 `json:"reopen_reason,omitempty"`
	AiResolution       *string                 `json:"ai_resolution,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	ClosedAt           *time.Time              `json:"closed_at,omitempty"`
	History            []TicketHistoryResponse `json:"history,omitempty"`
}

// SlaSnapshotResponse is the countdown view for pollers.
type SlaSnapshotResponse struct {
	State            engine.SlaState `json:"state"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	DueTime          *time.Time      `json:"due_time,omitempty"`
}

// TicketHistoryResponse represents an audit trail entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id,omitempty"`
	ChangedRole *domain.Role            `json:"changed_role,omitempty"`
	OldValue    map[string]any          `json:"old_value,omitempty"`
	NewValue    map[string]any          `json:"new_value,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}
