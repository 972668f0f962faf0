package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/repository"
)

type fakeTicketRepo struct {
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.EngineerID != nil {
			if ticket.AssignedEngineerID == nil || *ticket.AssignedEngineerID != *filter.EngineerID {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTicketRepo) ListTracked(_ context.Context) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status != domain.TicketStatusClosed && ticket.SlaDueTime != nil {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTicketRepo) CountOpenByEngineer(_ context.Context, engineerID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.AssignedEngineerID != nil && *ticket.AssignedEngineerID == engineerID && ticket.Open() {
			count++
		}
	}
	return count, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeCategoryRepo struct {
	seq        int
	categories map[string]domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]domain.Category)}
}

func (r *fakeCategoryRepo) add(code, name, description string, slaHours int, active bool) domain.Category {
	r.seq++
	cat := domain.Category{
		ID:          fmt.Sprintf("c-%d", r.seq),
		Code:        code,
		Name:        name,
		Description: description,
		SlaHours:    slaHours,
		IsActive:    active,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.categories[cat.ID] = cat
	return cat
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.seq++
	category.ID = fmt.Sprintf("c-%d", r.seq)
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	cat, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := cat
	return &copied, nil
}

func (r *fakeCategoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	for _, cat := range r.categories {
		if strings.EqualFold(cat.Name, name) {
			copied := cat
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	return r.sorted(func(domain.Category) bool { return true }), nil
}

func (r *fakeCategoryRepo) ListActive(_ context.Context) ([]domain.Category, error) {
	return r.sorted(func(c domain.Category) bool { return c.IsActive }), nil
}

func (r *fakeCategoryRepo) sorted(keep func(domain.Category) bool) []domain.Category {
	var result []domain.Category
	for _, cat := range r.categories {
		if keep(cat) {
			result = append(result, cat)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) add(id string, role domain.Role, createdAt time.Time) domain.User {
	user := domain.User{
		ID:        id,
		Name:      id,
		Email:     id + "@example.com",
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	r.users[id] = user
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("u-%d", len(r.users)+1)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role == role && user.Status == domain.UserStatusActive {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type fakeHistoryRepo struct {
	seq     int
	entries []domain.TicketHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.seq++
	entry.ID = fmt.Sprintf("h-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}
