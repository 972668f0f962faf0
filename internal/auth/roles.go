package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
