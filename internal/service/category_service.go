package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// CategoryService manages the issue-category catalog the matcher and
// escalation bridge resolve against.
type CategoryService struct {
	categories repository.CategoryRepository
}

// CategoryInput describes catalog create/update payloads.
type CategoryInput struct {
	Code        string
	Name        string
	Description string
	SlaHours    int
	IsActive    *bool
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// Create adds a catalog entry; admin only.
func (s *CategoryService) Create(ctx context.Context, actor domain.Actor, input CategoryInput) (*domain.Category, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, util.NewForbidden("admin role required")
	}
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByName(ctx, input.Name); err == nil {
		return nil, util.NewConflict("category name already exists", map[string]any{"name": input.Name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	category := &domain.Category{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		SlaHours:    input.SlaHours,
		IsActive:    active,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, util.MapError(err)
	}
	return category, nil
}

// Update edits a catalog entry; admin only. Deactivation takes the
// entry out of matching without touching existing tickets.
func (s *CategoryService) Update(ctx context.Context, actor domain.Actor, id string, input CategoryInput) (*domain.Category, error) {
	if !actor.Is(domain.RoleAdmin) {
		return nil, util.NewForbidden("admin role required")
	}
	if err := validateCategoryInput(input); err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, util.MapError(err)
	}

	category.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	category.Name = strings.TrimSpace(input.Name)
	category.Description = strings.TrimSpace(input.Description)
	category.SlaHours = input.SlaHours
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, util.MapError(err)
	}
	return category, nil
}

// Get fetches a single catalog entry.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, util.MapError(err)
	}
	return category, nil
}

// List returns the whole catalog for staff views.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return cats, nil
}

// ListActive returns the entries customers can pick from.
func (s *CategoryService) ListActive(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return cats, nil
}

func validateCategoryInput(input CategoryInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return util.NewValidationError("code is required", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return util.NewValidationError("name is required", nil)
	}
	if input.SlaHours <= 0 {
		return util.NewValidationError("sla_hours must be positive", map[string]any{"sla_hours": input.SlaHours})
	}
	return nil
}
