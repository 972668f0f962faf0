package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/auth"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// TicketsHandler manages customer ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.service.ListCustomerTickets(c.UserContext(), actor, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	now := time.Now()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i], h.service.SlaSnapshot(&tickets[i], now)))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketForCustomer(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), ticket.ID, 50, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, h.service.SlaSnapshot(ticket, time.Now()), history)})
}

// GetSla GET /tickets/:id/sla. Lightweight countdown for UI polling.
func (h *TicketsHandler) GetSla(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketForCustomer(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaSnapshotResponse(h.service.SlaSnapshot(ticket, time.Now()))})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ReopenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Reopen(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return domain.Actor{}, util.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}
