package handlers

import (
	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireSeller gates the seller dashboard routes.
func RequireSeller(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !u.IsSeller {
			applog.Security(c, "access.denied.seller", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// actor returns the authenticated user placed in Locals by RequireUser or the
// session middleware. Services receive its id explicitly; nothing below the
// handlers reads ambient session state.
func actor(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireSelf rejects requests where the :userID path segment is not the
// authenticated actor. Cart and account routes carry the owner in the path.
func RequireSelf(c *fiber.Ctx) error {
	u := actor(c)
	if u == nil || c.Params("userID") != u.ID {
		applog.Security(c, "access.denied.self", map[string]any{"param": c.Params("userID")})
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
	}
	return c.Next()
}
