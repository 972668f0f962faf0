package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Actor converts the principal into the domain actor used by services.
func (p *Principal) Actor() domain.Actor {
	return domain.Actor{ID: p.User.ID, Role: p.User.Role}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewUnauthorized("account not found")
		}
		return util.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return util.NewUnauthorized("account suspended")
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
