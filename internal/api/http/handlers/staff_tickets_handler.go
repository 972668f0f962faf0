package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// StaffTicketsHandler manages manager and engineer ticket endpoints.
type StaffTicketsHandler struct {
	service *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{service: ticketService}
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	filter := parseStaffTicketQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), actor, filter)
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

// GetTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketForStaff(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), ticket.ID, 50, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, h.service.SlaSnapshot(ticket, time.Now()), history)})
}

// AssignTicket POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.EngineerID) == "" {
		return util.NewValidationError("engineer_id required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), actor, c.Params("id"), req.EngineerID, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// AutoAssignTicket POST /staff/tickets/:id/auto-assign.
func (h *StaffTicketsHandler) AutoAssignTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.AutoAssign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// PickTicket POST /staff/tickets/:id/pick.
func (h *StaffTicketsHandler) PickTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Pick(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// ResolveTicket POST /staff/tickets/:id/resolve.
func (h *StaffTicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Resolve(c.UserContext(), actor, c.Params("id"), req.ResolutionSummary)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, h.service.SlaSnapshot(ticket, time.Now()))})
}

// History GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) History(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketForStaff(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.service.History(c.UserContext(), ticket.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// Queue GET /staff/tickets/queue. Engineer work queue ordered by urgency.
func (h *StaffTicketsHandler) Queue(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.EngineerQueue(c.UserContext(), actor)
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

func parseStaffTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if engineerID := c.Query("engineer_id"); engineerID != "" {
		filter.EngineerID = &engineerID
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
