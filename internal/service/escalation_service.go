package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
	"github.com/cortexdesk/cortexdesk/internal/events"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// jsonBlockPattern pulls the first {...} block out of free-form
// assistant text; chat models wrap the verdict JSON in prose.
var jsonBlockPattern = regexp.MustCompile(`\{[^{}]*\}`)

// EscalationService bridges failed chatbot sessions into tickets. The
// assistant's closing message carries a JSON verdict with a suggested
// category; anything unparseable falls back to the default category.
type EscalationService struct {
	tickets         *TicketService
	categories      repository.CategoryRepository
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	defaultCategory string
}

// EscalationInput is the payload from the chat frontend.
type EscalationInput struct {
	Description string
	AiResponse  string
}

// escalationVerdict mirrors the JSON block the assistant emits.
type escalationVerdict struct {
	Category   string `json:"category"`
	Resolution string `json:"resolution"`
	Escalate   bool   `json:"escalate"`
}

// NewEscalationService constructs the bridge.
func NewEscalationService(tickets *TicketService, categories repository.CategoryRepository, dispatcher events.Dispatcher, logger *zap.Logger, defaultCategory string) *EscalationService {
	if defaultCategory == "" {
		defaultCategory = "Billing / Account"
	}
	return &EscalationService{
		tickets:         tickets,
		categories:      categories,
		dispatcher:      dispatcher,
		logger:          logger,
		defaultCategory: defaultCategory,
	}
}

// Escalate turns a chat session into a NEW ticket. Category resolution
// never fails the request: unknown or missing names map to the default.
func (s *EscalationService) Escalate(ctx context.Context, customer domain.Actor, input EscalationInput) (*domain.Ticket, error) {
	if !customer.Is(domain.RoleCustomer) {
		return nil, util.NewUnauthorized("customer role required")
	}

	verdict := s.parseVerdict(input.AiResponse)

	categoryName := strings.TrimSpace(verdict.Category)
	if categoryName == "" {
		categoryName = s.defaultCategory
	}
	categoryID, err := s.resolveCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	var aiResolution *string
	if resolution := strings.TrimSpace(verdict.Resolution); resolution != "" {
		aiResolution = &resolution
	} else if response := strings.TrimSpace(input.AiResponse); response != "" {
		aiResolution = &response
	}

	ticket, err := s.tickets.CreateTicket(ctx, customer, TicketCreateInput{
		Description:  input.Description,
		CategoryID:   categoryID,
		AiResolution: aiResolution,
		Escalated:    true,
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketEscalated,
			TicketID:  ticket.ID,
			Actor:     events.Actor{ID: customer.ID, Role: customer.Role},
			Timestamp: time.Now(),
			Payload: events.TicketCreatedPayload{
				CustomerID:  ticket.CustomerID,
				CategoryID:  ticket.CategoryID,
				ExternalKey: ticket.ExternalKey,
				Escalated:   true,
			},
		})
	}
	return ticket, nil
}

// MatchCategory runs the matcher against the active catalog without
// creating anything; the chat frontend uses it to preview routing.
func (s *EscalationService) MatchCategory(ctx context.Context, description string) (*domain.Category, error) {
	catalog, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return engine.MatchCategory(description, catalog), nil
}

// parseVerdict extracts the assistant's JSON block. Malformed or
// absent JSON yields a zero verdict rather than an error.
func (s *EscalationService) parseVerdict(aiResponse string) escalationVerdict {
	var verdict escalationVerdict
	block := jsonBlockPattern.FindString(aiResponse)
	if block == "" {
		return verdict
	}
	if err := json.Unmarshal([]byte(block), &verdict); err != nil && s.logger != nil {
		s.logger.Debug("unparseable escalation verdict", zap.Error(err))
	}
	return verdict
}

// resolveCategory maps a name to a catalog id, falling back to the
// default category when the suggested name is unknown or inactive.
func (s *EscalationService) resolveCategory(ctx context.Context, name string) (*string, error) {
	category, err := s.categories.GetByName(ctx, name)
	if err == nil && category.IsActive {
		return &category.ID, nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}
	if !strings.EqualFold(name, s.defaultCategory) {
		if s.logger != nil {
			s.logger.Info("unknown escalation category, using default",
				zap.String("suggested", name),
				zap.String("default", s.defaultCategory))
		}
		return s.resolveCategory(ctx, s.defaultCategory)
	}
	// Default category missing from the catalog; let the matcher run.
	return nil, nil
}
