package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pixcards/internal/log"
	"pixcards/internal/services"
	"pixcards/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionCookie(sid string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
		Expires:  expires,
	}
}

// Login always issues a fresh session id so a pre-login cookie is never promoted.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation", "message": "malformed request body"})
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		c.Status(fiber.StatusUnauthorized)
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return c.JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}
	if !validate.Password(req.Password) {
		c.Status(fiber.StatusUnauthorized)
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return c.JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}

	sid := uuid.NewString()
	u, err := h.Auth.Login(c.UserContext(), sid, email, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrBadCreds) {
			return err
		}
		c.Status(fiber.StatusUnauthorized)
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}

	c.Cookie(sessionCookie(sid, time.Time{}))
	log.Audit(c, "auth.login.success", map[string]any{"email": email, "user_id": u.ID})
	return c.JSON(fiber.Map{"token": sid, "user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), sessionID(c)); err != nil {
		return err
	}
	c.Cookie(sessionCookie("", time.Now().Add(-1*time.Hour)))
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
