package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
	"github.com/cortexdesk/cortexdesk/internal/events"
	"github.com/cortexdesk/cortexdesk/internal/observability"
	"github.com/cortexdesk/cortexdesk/internal/persistence"
	"github.com/cortexdesk/cortexdesk/internal/repository"
)

// SlaMonitor periodically reclassifies running SLA clocks and raises
// alert/breach notifications. It never moves ticket lifecycle status;
// a breached ticket stays workable until someone resolves it.
type SlaMonitor struct {
	tickets    repository.TicketRepository
	policy     engine.SlaPolicy
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
	now        func() time.Time

	cron *cron.Cron

	mu        sync.Mutex
	lastState map[string]engine.SlaState
}

// SlaMonitorDependencies bundles monitor collaborators.
type SlaMonitorDependencies struct {
	TicketRepo repository.TicketRepository
	Policy     engine.SlaPolicy
	Dispatcher events.Dispatcher
	Redis      *persistence.Redis
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
	Now        func() time.Time
}

// NewSlaMonitor constructs the monitor.
func NewSlaMonitor(deps SlaMonitorDependencies) *SlaMonitor {
	interval := deps.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SlaMonitor{
		tickets:    deps.TicketRepo,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		redis:      deps.Redis,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		interval:   interval,
		now:        now,
		lastState:  make(map[string]engine.SlaState),
	}
}

// Start schedules the periodic scan.
func (m *SlaMonitor) Start(ctx context.Context) error {
	m.cron = cron.New()
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := m.cron.AddFunc(spec, func() {
		if err := m.Scan(ctx); err != nil {
			m.logger.Error("sla scan failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule sla monitor: %w", err)
	}
	m.cron.Start()
	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (m *SlaMonitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.logger.Info("sla monitor stopped")
}

// Scan reclassifies every tracked ticket once. Exposed for tests and
// for an eager run at startup.
func (m *SlaMonitor) Scan(ctx context.Context) error {
	tracked, err := m.tickets.ListTracked(ctx)
	if err != nil {
		return fmt.Errorf("list tracked tickets: %w", err)
	}

	now := m.now()
	seen := make(map[string]struct{}, len(tracked))
	for i := range tracked {
		ticket := &tracked[i]
		seen[ticket.ID] = struct{}{}
		m.evaluate(ctx, ticket, now)
	}
	m.forget(seen)
	return nil
}

func (m *SlaMonitor) evaluate(ctx context.Context, ticket *domain.Ticket, now time.Time) {
	if ticket.Status.Terminal() {
		return
	}
	state := m.policy.Classify(now, *ticket.SlaDueTime)

	m.mu.Lock()
	previous, known := m.lastState[ticket.ID]
	m.lastState[ticket.ID] = state
	m.mu.Unlock()

	if known && previous == state {
		return
	}
	// First sighting of an on-track ticket is not news.
	if !known && state == engine.SlaOnTrack {
		return
	}

	if state == engine.SlaBreached {
		m.raiseBreach(ctx, ticket)
	}

	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSlaStateChanged,
			TicketID:  ticket.ID,
			Timestamp: now,
			Payload: events.SlaStateChangedPayload{
				OldState:   previous,
				NewState:   state,
				Status:     ticket.Status,
				SlaDueTime: ticket.SlaDueTime,
			},
		})
	}
}

// raiseBreach fires the one-time breach alert. The Redis latch keys on
// ticket id and due time, so a reopened ticket with a fresh clock can
// alert again while restarts never double-fire for the same deadline.
func (m *SlaMonitor) raiseBreach(ctx context.Context, ticket *domain.Ticket) {
	key := fmt.Sprintf("sla:breach:%s:%d", ticket.ID, ticket.SlaDueTime.Unix())
	won, err := m.redis.AcquireOnce(ctx, key)
	if err != nil {
		m.logger.Warn("breach latch unavailable", zap.Error(err), zap.String("ticket_id", ticket.ID))
		won = true
	}
	if !won {
		return
	}
	m.metrics.RecordSlaBreach()
	m.logger.Warn("sla breached",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(ticket.Status)),
		zap.String("priority", string(ticket.Priority)),
		zap.Time("due", *ticket.SlaDueTime))
}

// forget drops state for tickets that left the tracked set, either
// closed or reopened with the clock cleared.
func (m *SlaMonitor) forget(seen map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.lastState {
		if _, ok := seen[id]; !ok {
			delete(m.lastState, id)
		}
	}
}
