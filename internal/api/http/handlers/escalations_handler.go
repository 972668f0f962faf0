package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// EscalationsHandler bridges failed chat sessions into tickets.
type EscalationsHandler struct {
	escalations *service.EscalationService
	tickets     *service.TicketService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(escalationService *service.EscalationService, ticketService *service.TicketService) *EscalationsHandler {
	return &EscalationsHandler{escalations: escalationService, tickets: ticketService}
}

// Escalate POST /escalations.
func (h *EscalationsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.EscalationRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.escalations.Escalate(c.UserContext(), actor, service.EscalationInput{
		Description: req.Description,
		AiResponse:  req.AiResponse,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket, h.tickets.SlaSnapshot(ticket, time.Now()))})
}

// Match POST /escalations/match. Dry-run category preview.
func (h *EscalationsHandler) Match(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	var req dto.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	category, err := h.escalations.MatchCategory(c.UserContext(), req.Description)
	if err != nil {
		return err
	}
	resp := dto.MatchResponse{Matched: category != nil}
	if category != nil {
		cat := categoryResponse(category)
		resp.Category = &cat
	}
	return c.JSON(fiber.Map{"data": resp})
}
