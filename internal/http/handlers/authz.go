package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"pixcards/internal/domain"
	applog "pixcards/internal/log"
	"pixcards/internal/services"
)

// sessionID reads the sid cookie, falling back to an Authorization: Bearer header.
func sessionID(c *fiber.Ctx) string {
	if sid := c.Cookies("sid"); sid != "" {
		return sid
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireUser resolves the session and stores the caller's identity in Locals("identity").
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.Identity(c.UserContext(), sessionID(c))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
			}
			return err
		}
		c.Locals("identity", id)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		id, err := auth.Identity(c.UserContext(), sid)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required"})
			}
			return err
		}
		c.Locals("identity", id)
		if !id.IsAdmin() {
			c.Status(fiber.StatusForbidden)
			applog.Security(c, "access.denied.admin", nil)
			return c.JSON(fiber.Map{"error": "unauthorized", "message": "Access denied"})
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) domain.Identity {
	id, _ := c.Locals("identity").(domain.Identity)
	return id
}
