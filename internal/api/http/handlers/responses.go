package handlers

import (
	"strconv"
	"time"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
)

func ticketSummary(ticket *domain.Ticket, snapshot engine.SlaSnapshot) dto.TicketSummary {
	return dto.TicketSummary{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		CategoryID:  ticket.CategoryID,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		SlaState:    snapshot.State,
		SlaDueTime:  snapshot.DueTime,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, snapshot engine.SlaSnapshot, history []domain.TicketHistory) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:                 ticket.ID,
		ExternalKey:        ticket.ExternalKey,
		CustomerID:         ticket.CustomerID,
		CategoryID:         ticket.CategoryID,
		Description:        ticket.Description,
		Status:             ticket.Status,
		Priority:           ticket.Priority,
		AssignedManagerID:  ticket.AssignedManagerID,
		AssignedEngineerID: ticket.AssignedEngineerID,
		AssignedAt:         ticket.AssignedAt,
		Sla:                slaSnapshotResponse(snapshot),
		ResolutionSummary:  ticket.ResolutionSummary,
		ReopenReason:       ticket.ReopenReason,
		AiResolution:       ticket.AiResolution,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		ClosedAt:           ticket.ClosedAt,
		History:            historyResponses(history),
	}
}

func slaSnapshotResponse(snapshot engine.SlaSnapshot) dto.SlaSnapshotResponse {
	return dto.SlaSnapshotResponse{
		State:            snapshot.State,
		RemainingSeconds: int64(snapshot.Remaining / time.Second),
		DueTime:          snapshot.DueTime,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			ChangedRole: entry.ChangedRole,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}

func categoryResponse(cat *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          cat.ID,
		Code:        cat.Code,
		Name:        cat.Name,
		Description: cat.Description,
		SlaHours:    cat.SlaHours,
		IsActive:    cat.IsActive,
		CreatedAt:   cat.CreatedAt,
		UpdatedAt:   cat.UpdatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
