package engine

import (
	"strings"
	"time"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// Action names a lifecycle operation on a ticket.
type Action string

const (
	ActionAssign     Action = "assign"
	ActionAutoAssign Action = "auto_assign"
	ActionPick       Action = "pick"
	ActionResolve    Action = "resolve"
	ActionClose      Action = "close"
	ActionReopen     Action = "reopen"
)

// Command carries one requested transition: the action, the acting
// capability and the action's payload fields.
type Command struct {
	Action            Action
	Actor             domain.Actor
	Priority          domain.TicketPriority
	EngineerID        string
	ResolutionSummary string
	ReopenReason      string
	Now               time.Time
}

const minResolutionLen = 5

// StateMachine validates and applies status transitions. It owns the
// (status, action) dispatch table; nothing else mutates ticket status.
type StateMachine struct {
	sla SlaPolicy
}

// NewStateMachine builds a machine around the injected SLA policy.
func NewStateMachine(policy SlaPolicy) *StateMachine {
	return &StateMachine{sla: policy}
}

// Policy exposes the SLA table for read-only snapshot callers.
func (m *StateMachine) Policy() SlaPolicy {
	return m.sla
}

type transitionKey struct {
	from   domain.TicketStatus
	action Action
}

type transitionRule struct {
	next  domain.TicketStatus
	guard func(t *domain.Ticket, cmd Command) error
	apply func(t *domain.Ticket, cmd Command, sla SlaPolicy)
}

// transitions is the authoritative table. Every legal (status, action)
// pair appears here; anything absent is INVALID_TRANSITION.
var transitions = map[transitionKey]transitionRule{
	{domain.TicketStatusNew, ActionAssign}:          {next: domain.TicketStatusAssigned, guard: guardAssign, apply: applyAssign},
	{domain.TicketStatusReopened, ActionAssign}:     {next: domain.TicketStatusAssigned, guard: guardAssign, apply: applyAssign},
	{domain.TicketStatusNew, ActionAutoAssign}:      {next: domain.TicketStatusAssigned, guard: guardAutoAssign, apply: applyAssign},
	{domain.TicketStatusReopened, ActionAutoAssign}: {next: domain.TicketStatusAssigned, guard: guardAutoAssign, apply: applyAssign},
	{domain.TicketStatusAssigned, ActionPick}:       {next: domain.TicketStatusInProgress, guard: guardNone, apply: applyNone},
	{domain.TicketStatusInProgress, ActionResolve}:  {next: domain.TicketStatusResolved, guard: guardResolve, apply: applyResolve},
	{domain.TicketStatusResolved, ActionClose}:      {next: domain.TicketStatusClosed, guard: guardNone, apply: applyClose},
	{domain.TicketStatusResolved, ActionReopen}:     {next: domain.TicketStatusReopened, guard: guardReopen, apply: applyReopen},
}

// Apply runs one transition all-or-nothing: authorization, then table
// lookup, then payload guards; the ticket is mutated only after every
// check passes.
func (m *StateMachine) Apply(t *domain.Ticket, cmd Command) error {
	if err := authorize(t, cmd); err != nil {
		return err
	}
	rule, ok := transitions[transitionKey{from: t.Status, action: cmd.Action}]
	if !ok {
		return util.NewInvalidTransition(string(t.Status), string(cmd.Action))
	}
	if err := rule.guard(t, cmd); err != nil {
		return err
	}
	rule.apply(t, cmd, m.sla)
	t.Status = rule.next
	t.UpdatedAt = cmd.Now
	return nil
}

// authorize checks role and identity before transition validity, so a
// wrong actor is told UNAUTHORIZED no matter what state the ticket is
// in.
func authorize(t *domain.Ticket, cmd Command) error {
	switch cmd.Action {
	case ActionAssign, ActionAutoAssign:
		if !cmd.Actor.Is(domain.RoleManager) {
			return util.NewUnauthorized("manager role required")
		}
	case ActionPick, ActionResolve:
		if !cmd.Actor.Is(domain.RoleEngineer) {
			return util.NewUnauthorized("engineer role required")
		}
		if t.AssignedEngineerID != nil && *t.AssignedEngineerID != cmd.Actor.ID {
			return util.NewUnauthorized("ticket is assigned to another engineer")
		}
	case ActionClose, ActionReopen:
		if !cmd.Actor.Is(domain.RoleCustomer) {
			return util.NewUnauthorized("customer role required")
		}
		if t.CustomerID != cmd.Actor.ID {
			return util.NewUnauthorized("ticket belongs to another customer")
		}
	default:
		return util.NewInvalidTransition(string(t.Status), string(cmd.Action))
	}
	return nil
}

func guardNone(*domain.Ticket, Command) error { return nil }

func applyNone(*domain.Ticket, Command, SlaPolicy) {}

func guardAssign(_ *domain.Ticket, cmd Command) error {
	switch cmd.Priority {
	case domain.TicketPriorityHigh, domain.TicketPriorityMedium, domain.TicketPriorityLow:
	default:
		return util.NewValidationError("priority is required for assignment", nil)
	}
	if cmd.EngineerID == "" {
		return util.NewValidationError("engineer is required for assignment", nil)
	}
	return nil
}

func guardAutoAssign(_ *domain.Ticket, cmd Command) error {
	// the caller runs the load-balancing pick; an empty engineer means
	// the available pool was empty
	if cmd.EngineerID == "" {
		return util.NewValidationError("no engineers available for auto-assignment", nil)
	}
	return nil
}

func applyAssign(t *domain.Ticket, cmd Command, sla SlaPolicy) {
	priority := cmd.Priority
	if priority == "" || priority == domain.TicketPriorityNotSet {
		priority = domain.TicketPriorityMedium
	}
	t.Priority = priority
	managerID := cmd.Actor.ID
	engineerID := cmd.EngineerID
	t.AssignedManagerID = &managerID
	t.AssignedEngineerID = &engineerID
	assignedAt := cmd.Now
	t.AssignedAt = &assignedAt
	due := sla.DueTime(priority, assignedAt)
	t.SlaDueTime = &due
}

func guardResolve(_ *domain.Ticket, cmd Command) error {
	if len(strings.TrimSpace(cmd.ResolutionSummary)) < minResolutionLen {
		return util.NewValidationError("resolution summary must be at least 5 characters", nil)
	}
	return nil
}

func applyResolve(t *domain.Ticket, cmd Command, _ SlaPolicy) {
	summary := strings.TrimSpace(cmd.ResolutionSummary)
	t.ResolutionSummary = &summary
}

func applyClose(t *domain.Ticket, cmd Command, _ SlaPolicy) {
	closedAt := cmd.Now
	t.ClosedAt = &closedAt
}

func guardReopen(_ *domain.Ticket, cmd Command) error {
	if strings.TrimSpace(cmd.ReopenReason) == "" {
		return util.NewValidationError("reopen reason is required", nil)
	}
	return nil
}

// applyReopen sends the ticket back to the unassigned pool: the stale
// engineer, manager and deadline must not survive into the next cycle.
func applyReopen(t *domain.Ticket, cmd Command, _ SlaPolicy) {
	reason := strings.TrimSpace(cmd.ReopenReason)
	t.ReopenReason = &reason
	t.ResolutionSummary = nil
	t.AssignedManagerID = nil
	t.AssignedEngineerID = nil
	t.AssignedAt = nil
	t.SlaDueTime = nil
	t.Priority = domain.TicketPriorityNotSet
}
