package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// CategoriesHandler manages the issue-category catalog.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// ListActive GET /categories. Public: the submit form needs the list.
func (h *CategoriesHandler) ListActive(c *fiber.Ctx) error {
	cats, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponses(cats)})
}

// List GET /admin/categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	cats, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponses(cats)})
}

// Get GET /admin/categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	cat, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(cat)})
}

// Create POST /admin/categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	cat, err := h.service.Create(c.UserContext(), actor, categoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(cat)})
}

// Update PUT /admin/categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	cat, err := h.service.Update(c.UserContext(), actor, c.Params("id"), categoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(cat)})
}

func categoryInput(req dto.CategoryRequest) service.CategoryInput {
	return service.CategoryInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		SlaHours:    req.SlaHours,
		IsActive:    req.IsActive,
	}
}

func categoryResponses(cats []domain.Category) []dto.CategoryResponse {
	items := make([]dto.CategoryResponse, 0, len(cats))
	for i := range cats {
		items = append(items, categoryResponse(&cats[i]))
	}
	return items
}
