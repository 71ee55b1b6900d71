package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	applog "github.com/vrdialip/Peminjaman-App/internal/log"
	"github.com/vrdialip/Peminjaman-App/internal/services"
)

// RequireRole validates the bearer token and enforces the given role.
// The resolved Actor is stashed in Locals for handlers to pass explicitly
// into the core.
func RequireRole(auth *services.AuthService, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fail(c, fiber.StatusUnauthorized, "missing token")
		}
		actor, err := auth.Verify(token)
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return fail(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		if role != "" && actor.Role != role {
			applog.Security(c, "access.denied.role", map[string]any{"want": role, "got": actor.Role})
			return fail(c, fiber.StatusForbidden, "access denied")
		}
		c.Locals("actor", actor)
		c.Locals("user_id", actor.UserID)
		c.Locals("org_id", actor.OrganizationID)
		return c.Next()
	}
}

// actorFrom returns the Actor set by RequireRole.
func actorFrom(c *fiber.Ctx) domain.Actor {
	a, _ := c.Locals("actor").(domain.Actor)
	return a
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
