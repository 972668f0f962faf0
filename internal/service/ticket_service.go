package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
	"github.com/cortexdesk/cortexdesk/internal/events"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

const minDescriptionLen = 10

// TicketService coordinates the ticket lifecycle: it owns the
// per-ticket lock, feeds commands into the state machine and persists
// the outcome with its audit trail.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	machine    *engine.StateMachine
	dispatcher events.Dispatcher
	locks      *util.KeyMutex
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	HistoryRepo  repository.TicketHistoryRepository
	Machine      *engine.StateMachine
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Description  string
	CategoryID   *string
	AiResolution *string
	Escalated    bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		machine:    deps.Machine,
		dispatcher: deps.Dispatcher,
		locks:      util.NewKeyMutex(),
		now:        now,
	}
}

// CreateTicket mints a NEW ticket for a customer. When no category is
// given the matcher runs against the active catalog; a low-confidence
// result leaves the field unset for later assignment.
func (s *TicketService) CreateTicket(ctx context.Context, customer domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !customer.Is(domain.RoleCustomer) {
		return nil, util.NewUnauthorized("customer role required")
	}
	description := strings.TrimSpace(input.Description)
	if len(description) < minDescriptionLen {
		return nil, util.NewValidationError("description must be at least 10 characters", nil)
	}

	categoryID := input.CategoryID
	if categoryID != nil {
		cat, err := s.categories.GetByID(ctx, *categoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, util.NewNotFound("category", map[string]any{"category_id": *categoryID})
			}
			return nil, util.MapError(err)
		}
		if !cat.IsActive {
			return nil, util.NewConflict("category inactive", map[string]any{"category_id": cat.ID})
		}
	} else {
		catalog, err := s.categories.ListActive(ctx)
		if err != nil {
			return nil, util.MapError(err)
		}
		if match := engine.MatchCategory(description, catalog); match != nil {
			categoryID = &match.ID
		}
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		CustomerID:  customer.ID,
		CategoryID:  categoryID,
		Description: description,
		Status:      domain.TicketStatusNew,
		Priority:    domain.TicketPriorityNotSet,
	}
	if input.AiResolution != nil {
		ai := strings.TrimSpace(*input.AiResolution)
		if ai != "" {
			ticket.AiResolution = &ai
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}
	if err := s.recordStatusChange(ctx, customer, ticket.ID, "", ticket.Status, "created"); err != nil {
		return nil, util.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: customer.ID, Role: customer.Role},
		Payload: events.TicketCreatedPayload{
			CustomerID:  ticket.CustomerID,
			CategoryID:  ticket.CategoryID,
			ExternalKey: ticket.ExternalKey,
			Escalated:   input.Escalated,
		},
	})
	return ticket, nil
}

// Assign attaches priority, manager and engineer, starting the SLA clock.
func (s *TicketService) Assign(ctx context.Context, manager domain.Actor, ticketID, engineerID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if engineerID != "" {
		if err := s.requireEngineer(ctx, engineerID); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, ticketID, engine.Command{
		Action:     engine.ActionAssign,
		Actor:      manager,
		Priority:   priority,
		EngineerID: engineerID,
	}, "assigned")
}

// AutoAssign picks the engineer with the fewest open tickets and
// assigns like Assign. Ties go to the longest-tenured engineer.
func (s *TicketService) AutoAssign(ctx context.Context, manager domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !manager.Is(domain.RoleManager) {
		return nil, util.NewUnauthorized("manager role required")
	}
	engineers, err := s.users.ListByRole(ctx, domain.RoleEngineer)
	if err != nil {
		return nil, util.MapError(err)
	}

	engineerID := ""
	bestLoad := 0
	sort.Slice(engineers, func(i, j int) bool {
		return engineers[i].CreatedAt.Before(engineers[j].CreatedAt)
	})
	for _, eng := range engineers {
		load, err := s.tickets.CountOpenByEngineer(ctx, eng.ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		if engineerID == "" || load < bestLoad {
			engineerID = eng.ID
			bestLoad = load
		}
	}

	return s.transition(ctx, ticketID, engine.Command{
		Action:     engine.ActionAutoAssign,
		Actor:      manager,
		EngineerID: engineerID,
	}, "auto_assigned")
}

// Pick moves an assigned ticket into progress for its engineer.
func (s *TicketService) Pick(ctx context.Context, engineer domain.Actor, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, engine.Command{
		Action: engine.ActionPick,
		Actor:  engineer,
	}, "picked")
}

// Resolve records the engineer's summary and marks the ticket resolved.
func (s *TicketService) Resolve(ctx context.Context, engineer domain.Actor, ticketID, resolutionSummary string) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, engine.Command{
		Action:            engine.ActionResolve,
		Actor:             engineer,
		ResolutionSummary: resolutionSummary,
	}, "resolved")
}

// Close lets the owning customer confirm resolution; CLOSED is terminal.
func (s *TicketService) Close(ctx context.Context, customer domain.Actor, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, engine.Command{
		Action: engine.ActionClose,
		Actor:  customer,
	}, "customer_closed")
}

// Reopen disputes a resolution and sends the ticket back to the pool.
func (s *TicketService) Reopen(ctx context.Context, customer domain.Actor, ticketID, reason string) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, engine.Command{
		Action:       engine.ActionReopen,
		Actor:        customer,
		ReopenReason: reason,
	}, "customer_reopened")
}

// transition serializes per ticket: load, apply, persist, audit, emit.
// The engine mutates the loaded copy only after every guard passes, so
// a rejected command writes nothing.
func (s *TicketService) transition(ctx context.Context, ticketID string, cmd engine.Command, comment string) (*domain.Ticket, error) {
	s.locks.Lock(ticketID)
	defer s.locks.Unlock(ticketID)

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.MapError(err)
	}

	oldStatus := ticket.Status
	cmd.Now = s.now()
	if err := s.machine.Apply(ticket, cmd); err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}
	if err := s.recordStatusChange(ctx, cmd.Actor, ticket.ID, oldStatus, ticket.Status, comment); err != nil {
		return nil, util.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: cmd.Actor.ID, Role: cmd.Actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		},
	})
	if ticket.Status == domain.TicketStatusAssigned && ticket.AssignedEngineerID != nil && ticket.SlaDueTime != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    events.Actor{ID: cmd.Actor.ID, Role: cmd.Actor.Role},
			Payload: events.TicketAssignedPayload{
				EngineerID: *ticket.AssignedEngineerID,
				ManagerID:  cmd.Actor.ID,
				Priority:   ticket.Priority,
				SlaDueTime: *ticket.SlaDueTime,
				Auto:       cmd.Action == engine.ActionAutoAssign,
			},
		})
	}
	return ticket, nil
}

// GetTicketForCustomer fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customer domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customer.ID {
		return nil, util.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicketForStaff fetches a ticket for manager/engineer/admin views.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff domain.Actor, ticketID string) (*domain.Ticket, error) {
	if staff.Is(domain.RoleCustomer) {
		return nil, util.NewForbidden("staff role required")
	}
	return s.getTicket(ctx, ticketID)
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.MapError(err)
	}
	return ticket, nil
}

// ListCustomerTickets returns the customer's own tickets.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customer domain.Actor, limit, offset int) ([]domain.Ticket, error) {
	customerID := customer.ID
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	})
}

// ListTickets returns tickets for manager/admin dashboards.
func (s *TicketService) ListTickets(ctx context.Context, staff domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !staff.Is(domain.RoleManager) && !staff.Is(domain.RoleAdmin) {
		return nil, util.NewForbidden("manager or admin role required")
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// EngineerQueue lists the engineer's workable tickets ordered by SLA
// urgency, then priority, then earliest deadline.
func (s *TicketService) EngineerQueue(ctx context.Context, engineer domain.Actor) ([]domain.Ticket, error) {
	if !engineer.Is(domain.RoleEngineer) {
		return nil, util.NewForbidden("engineer role required")
	}
	engineerID := engineer.ID
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		EngineerID: &engineerID,
		Statuses:   []domain.TicketStatus{domain.TicketStatusAssigned, domain.TicketStatusInProgress},
		Limit:      200,
	})
	if err != nil {
		return nil, util.MapError(err)
	}

	policy := s.machine.Policy()
	now := s.now()
	sort.SliceStable(tickets, func(i, j int) bool {
		si := policy.Snapshot(&tickets[i], now)
		sj := policy.Snapshot(&tickets[j], now)
		if si.State.Urgency() != sj.State.Urgency() {
			return si.State.Urgency() > sj.State.Urgency()
		}
		if tickets[i].Priority.Rank() != tickets[j].Priority.Rank() {
			return tickets[i].Priority.Rank() > tickets[j].Priority.Rank()
		}
		if tickets[i].SlaDueTime != nil && tickets[j].SlaDueTime != nil {
			return tickets[i].SlaDueTime.Before(*tickets[j].SlaDueTime)
		}
		return tickets[j].SlaDueTime == nil
	})
	return tickets, nil
}

// SlaSnapshot evaluates a ticket's countdown; read-only and lock-free.
func (s *TicketService) SlaSnapshot(ticket *domain.Ticket, now time.Time) engine.SlaSnapshot {
	return s.machine.Policy().Snapshot(ticket, now)
}

// History returns the audit trail for a ticket.
func (s *TicketService) History(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) requireEngineer(ctx context.Context, engineerID string) error {
	eng, err := s.users.GetByID(ctx, engineerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("engineer", map[string]any{"engineer_id": engineerID})
		}
		return util.MapError(err)
	}
	if eng.Role != domain.RoleEngineer {
		return util.NewValidationError("assignee is not an engineer", map[string]any{"user_id": engineerID})
	}
	if eng.Status != domain.UserStatusActive {
		return util.NewConflict("engineer inactive", map[string]any{"engineer_id": engineerID})
	}
	return nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, actor domain.Actor, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	if s.history == nil {
		return nil
	}
	actorID := actor.ID
	role := actor.Role
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: &actorID,
		ChangedRole: &role,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
