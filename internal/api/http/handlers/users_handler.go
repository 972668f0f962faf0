package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/dto"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// UsersHandler manages registration and login.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	}
}
