package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

func TestDueTimePerPriority(t *testing.T) {
	policy := DefaultSlaPolicy()
	assigned := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, assigned.Add(4*time.Hour), policy.DueTime(domain.TicketPriorityHigh, assigned))
	assert.Equal(t, assigned.Add(24*time.Hour), policy.DueTime(domain.TicketPriorityMedium, assigned))
	assert.Equal(t, assigned.Add(72*time.Hour), policy.DueTime(domain.TicketPriorityLow, assigned))
}

func TestRemainingClampedAndMonotonic(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	prev := Remaining(due.Add(-3*time.Hour), due)
	for _, offset := range []time.Duration{-2 * time.Hour, -time.Minute, 0, time.Minute, 48 * time.Hour} {
		cur := Remaining(due.Add(offset), due)
		assert.GreaterOrEqual(t, cur, time.Duration(0))
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, time.Duration(0), Remaining(due, due))
	assert.Equal(t, time.Duration(0), Remaining(due.Add(time.Hour), due))
}

func TestClassifyThreeWay(t *testing.T) {
	policy := DefaultSlaPolicy()
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want SlaState
	}{
		{"well before due", due.Add(-2 * time.Hour), SlaOnTrack},
		{"just outside window", due.Add(-31 * time.Minute), SlaOnTrack},
		{"inside window", due.Add(-30 * time.Minute), SlaAlert},
		{"one second left", due.Add(-time.Second), SlaAlert},
		{"exactly due", due, SlaBreached},
		{"past due", due.Add(time.Hour), SlaBreached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Classify(tt.now, due))
		})
	}
}

func TestSnapshotNotStartedWithoutAssignment(t *testing.T) {
	policy := DefaultSlaPolicy()
	ticket := &domain.Ticket{Status: domain.TicketStatusNew, Priority: domain.TicketPriorityNotSet}

	snap := policy.Snapshot(ticket, time.Now())

	assert.Equal(t, SlaNotStarted, snap.State)
	assert.Nil(t, snap.DueTime)
	assert.Zero(t, snap.Remaining)
}

func TestSnapshotTracksAssignedTicket(t *testing.T) {
	policy := DefaultSlaPolicy()
	assigned := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := policy.DueTime(domain.TicketPriorityHigh, assigned)
	ticket := &domain.Ticket{
		Status:     domain.TicketStatusAssigned,
		Priority:   domain.TicketPriorityHigh,
		AssignedAt: &assigned,
		SlaDueTime: &due,
	}

	snap := policy.Snapshot(ticket, assigned.Add(time.Hour))

	assert.Equal(t, SlaOnTrack, snap.State)
	assert.Equal(t, 3*time.Hour, snap.Remaining)
	require.NotNil(t, snap.DueTime)
	assert.Equal(t, due, *snap.DueTime)
}

func TestPolicyValidate(t *testing.T) {
	policy := DefaultSlaPolicy()
	require.NoError(t, policy.Validate())

	inverted := SlaPolicy{
		Durations: map[domain.TicketPriority]time.Duration{
			domain.TicketPriorityHigh:   72 * time.Hour,
			domain.TicketPriorityMedium: 24 * time.Hour,
			domain.TicketPriorityLow:    4 * time.Hour,
		},
		AlertWindow: 30 * time.Minute,
	}
	assert.Error(t, inverted.Validate())

	zeroed := DefaultSlaPolicy()
	zeroed.Durations[domain.TicketPriorityHigh] = 0
	assert.Error(t, zeroed.Validate())

	noWindow := DefaultSlaPolicy()
	noWindow.AlertWindow = 0
	assert.Error(t, noWindow.Validate())
}

func TestSlaStateUrgencyOrdering(t *testing.T) {
	assert.Greater(t, SlaBreached.Urgency(), SlaAlert.Urgency())
	assert.Greater(t, SlaAlert.Urgency(), SlaOnTrack.Urgency())
	assert.Greater(t, SlaOnTrack.Urgency(), SlaNotStarted.Urgency())
}
