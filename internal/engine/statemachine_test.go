package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

var (
	customer = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	manager  = domain.Actor{ID: "mgr-1", Role: domain.RoleManager}
	engineer = domain.Actor{ID: "eng-1", Role: domain.RoleEngineer}

	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newMachine() *StateMachine {
	return NewStateMachine(DefaultSlaPolicy())
}

func newTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:          "tk-1",
		CustomerID:  customer.ID,
		Description: "no internet at home since morning",
		Status:      domain.TicketStatusNew,
		Priority:    domain.TicketPriorityNotSet,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func assertSlaInvariant(t *testing.T, ticket *domain.Ticket) {
	t.Helper()
	assert.Equal(t, ticket.AssignedAt != nil, ticket.SlaDueTime != nil,
		"slaDueTime must exist iff assignedAt exists")
}

func assign(t *testing.T, m *StateMachine, ticket *domain.Ticket, priority domain.TicketPriority, now time.Time) {
	t.Helper()
	require.NoError(t, m.Apply(ticket, Command{
		Action:     ActionAssign,
		Actor:      manager,
		Priority:   priority,
		EngineerID: engineer.ID,
		Now:        now,
	}))
}

func TestAssignStartsSlaClock(t *testing.T) {
	m := newMachine()
	ticket := newTicket()

	assign(t, m, ticket, domain.TicketPriorityHigh, t0)

	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	require.NotNil(t, ticket.AssignedManagerID)
	assert.Equal(t, manager.ID, *ticket.AssignedManagerID)
	require.NotNil(t, ticket.AssignedEngineerID)
	assert.Equal(t, engineer.ID, *ticket.AssignedEngineerID)
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, t0, *ticket.AssignedAt)
	require.NotNil(t, ticket.SlaDueTime)
	assert.Equal(t, t0.Add(4*time.Hour), *ticket.SlaDueTime)
	assertSlaInvariant(t, ticket)
}

func TestAssignGuards(t *testing.T) {
	m := newMachine()

	tests := []struct {
		name     string
		cmd      Command
		wantCode string
	}{
		{
			name:     "customer cannot assign",
			cmd:      Command{Action: ActionAssign, Actor: customer, Priority: domain.TicketPriorityHigh, EngineerID: engineer.ID, Now: t0},
			wantCode: "UNAUTHORIZED",
		},
		{
			name:     "engineer cannot assign",
			cmd:      Command{Action: ActionAssign, Actor: engineer, Priority: domain.TicketPriorityHigh, EngineerID: engineer.ID, Now: t0},
			wantCode: "UNAUTHORIZED",
		},
		{
			name:     "missing priority",
			cmd:      Command{Action: ActionAssign, Actor: manager, EngineerID: engineer.ID, Now: t0},
			wantCode: "VALIDATION_FAILED",
		},
		{
			name:     "missing engineer",
			cmd:      Command{Action: ActionAssign, Actor: manager, Priority: domain.TicketPriorityLow, Now: t0},
			wantCode: "VALIDATION_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := newTicket()
			err := m.Apply(ticket, tt.cmd)
			require.Error(t, err)
			assert.True(t, util.IsCode(err, tt.wantCode), "got %v", err)
			// rejected commands leave the ticket untouched
			assert.Equal(t, domain.TicketStatusNew, ticket.Status)
			assert.Nil(t, ticket.AssignedAt)
			assertSlaInvariant(t, ticket)
		})
	}
}

func TestAutoAssignDefaultsPriority(t *testing.T) {
	m := newMachine()
	ticket := newTicket()

	require.NoError(t, m.Apply(ticket, Command{
		Action:     ActionAutoAssign,
		Actor:      manager,
		EngineerID: engineer.ID,
		Now:        t0,
	}))

	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	require.NotNil(t, ticket.SlaDueTime)
	assert.Equal(t, t0.Add(24*time.Hour), *ticket.SlaDueTime)
}

func TestAutoAssignRequiresEngineerPool(t *testing.T) {
	m := newMachine()
	ticket := newTicket()

	err := m.Apply(ticket, Command{Action: ActionAutoAssign, Actor: manager, Now: t0})

	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestPickByWrongEngineerIsUnauthorizedInAnyState(t *testing.T) {
	m := newMachine()
	other := domain.Actor{ID: "eng-2", Role: domain.RoleEngineer}

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
	} {
		ticket := newTicket()
		assign(t, m, ticket, domain.TicketPriorityMedium, t0)
		ticket.Status = status

		err := m.Apply(ticket, Command{Action: ActionPick, Actor: other, Now: t0})

		require.Error(t, err, "status %s", status)
		assert.True(t, util.IsCode(err, "UNAUTHORIZED"), "status %s got %v", status, err)
	}
}

func TestResolveRejectsShortSummaryInAnyState(t *testing.T) {
	m := newMachine()

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusAssigned,
	} {
		ticket := newTicket()
		assign(t, m, ticket, domain.TicketPriorityMedium, t0)
		ticket.Status = status

		err := m.Apply(ticket, Command{
			Action:            ActionResolve,
			Actor:             engineer,
			ResolutionSummary: "ok",
			Now:               t0,
		})

		require.Error(t, err, "status %s", status)
		assert.Nil(t, ticket.ResolutionSummary)
	}
}

func TestFullLifecycleToClosed(t *testing.T) {
	m := newMachine()
	ticket := newTicket()

	assign(t, m, ticket, domain.TicketPriorityHigh, t0)
	assert.Equal(t, t0.Add(4*time.Hour), *ticket.SlaDueTime)

	require.NoError(t, m.Apply(ticket, Command{Action: ActionPick, Actor: engineer, Now: t0.Add(time.Minute)}))
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)

	require.NoError(t, m.Apply(ticket, Command{
		Action:            ActionResolve,
		Actor:             engineer,
		ResolutionSummary: "fixed by restart",
		Now:               t0.Add(time.Hour),
	}))
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolutionSummary)
	assert.Equal(t, "fixed by restart", *ticket.ResolutionSummary)

	require.NoError(t, m.Apply(ticket, Command{Action: ActionClose, Actor: customer, Now: t0.Add(2 * time.Hour)}))
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	require.NotNil(t, ticket.ClosedAt)

	// CLOSED is terminal: nothing moves the ticket again
	err := m.Apply(ticket, Command{
		Action:            ActionResolve,
		Actor:             engineer,
		ResolutionSummary: "trying again",
		Now:               t0.Add(3 * time.Hour),
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_TRANSITION"))
	assertSlaInvariant(t, ticket)
}

func TestReopenResetsAssignmentAndSla(t *testing.T) {
	m := newMachine()
	ticket := newTicket()

	assign(t, m, ticket, domain.TicketPriorityHigh, t0)
	require.NoError(t, m.Apply(ticket, Command{Action: ActionPick, Actor: engineer, Now: t0}))
	require.NoError(t, m.Apply(ticket, Command{
		Action:            ActionResolve,
		Actor:             engineer,
		ResolutionSummary: "rebooted the ONT",
		Now:               t0.Add(time.Hour),
	}))

	require.NoError(t, m.Apply(ticket, Command{
		Action:       ActionReopen,
		Actor:        customer,
		ReopenReason: "issue returned",
		Now:          t0.Add(2 * time.Hour),
	}))

	assert.Equal(t, domain.TicketStatusReopened, ticket.Status)
	assert.Nil(t, ticket.ResolutionSummary)
	assert.Nil(t, ticket.AssignedManagerID)
	assert.Nil(t, ticket.AssignedEngineerID)
	assert.Nil(t, ticket.AssignedAt)
	assert.Nil(t, ticket.SlaDueTime)
	assert.Equal(t, domain.TicketPriorityNotSet, ticket.Priority)
	require.NotNil(t, ticket.ReopenReason)
	assert.Equal(t, "issue returned", *ticket.ReopenReason)
	assertSlaInvariant(t, ticket)

	snap := m.Policy().Snapshot(ticket, t0.Add(3*time.Hour))
	assert.Equal(t, SlaNotStarted, snap.State)

	// reassignment starts a fresh clock
	assign(t, m, ticket, domain.TicketPriorityLow, t0.Add(4*time.Hour))
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, t0.Add(4*time.Hour), *ticket.AssignedAt)
	assert.Equal(t, t0.Add(4*time.Hour).Add(72*time.Hour), *ticket.SlaDueTime)
}

func TestReopenRequiresReason(t *testing.T) {
	m := newMachine()
	ticket := newTicket()
	assign(t, m, ticket, domain.TicketPriorityMedium, t0)
	ticket.Status = domain.TicketStatusResolved

	err := m.Apply(ticket, Command{Action: ActionReopen, Actor: customer, ReopenReason: "  ", Now: t0})

	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
}

func TestCloseAndReopenOwnerOnly(t *testing.T) {
	m := newMachine()
	stranger := domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}

	ticket := newTicket()
	assign(t, m, ticket, domain.TicketPriorityMedium, t0)
	ticket.Status = domain.TicketStatusResolved

	err := m.Apply(ticket, Command{Action: ActionClose, Actor: stranger, Now: t0})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))

	err = m.Apply(ticket, Command{Action: ActionReopen, Actor: stranger, ReopenReason: "not fixed", Now: t0})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))

	err = m.Apply(ticket, Command{Action: ActionClose, Actor: manager, Now: t0})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
}

func TestEveryUndeclaredPairRejected(t *testing.T) {
	m := newMachine()
	statuses := []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusReopened,
	}
	actors := map[Action]domain.Actor{
		ActionAssign:     manager,
		ActionAutoAssign: manager,
		ActionPick:       engineer,
		ActionResolve:    engineer,
		ActionClose:      customer,
		ActionReopen:     customer,
	}

	for _, status := range statuses {
		for action, actor := range actors {
			if _, declared := transitions[transitionKey{from: status, action: action}]; declared {
				continue
			}
			ticket := newTicket()
			ticket.Status = status

			err := m.Apply(ticket, Command{
				Action:            action,
				Actor:             actor,
				Priority:          domain.TicketPriorityMedium,
				EngineerID:        engineer.ID,
				ResolutionSummary: "valid summary text",
				ReopenReason:      "valid reason",
				Now:               t0,
			})

			require.Error(t, err, "(%s, %s) must be rejected", status, action)
			assert.True(t, util.IsCode(err, "INVALID_TRANSITION"), "(%s, %s) got %v", status, action, err)
			assert.Equal(t, status, ticket.Status)
		}
	}
}
