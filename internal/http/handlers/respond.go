package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pixcards/internal/domain"
	applog "pixcards/internal/log"
	"pixcards/internal/validate"
)

const genericMessage = "Something went wrong. Please try again."

var errorStatus = []struct {
	err    error
	status int
	kind   string
}{
	{domain.ErrValidation, fiber.StatusBadRequest, "validation"},
	{domain.ErrUnauthorized, fiber.StatusForbidden, "unauthorized"},
	{domain.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{domain.ErrOutOfStock, fiber.StatusConflict, "out_of_stock"},
	{domain.ErrInsufficientFunds, fiber.StatusPaymentRequired, "insufficient_funds"},
	{domain.ErrAlreadyRedeemed, fiber.StatusConflict, "already_redeemed"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "invalid_transition"},
}

var fiberKinds = map[int]string{
	fiber.StatusBadRequest:            "validation",
	fiber.StatusUnprocessableEntity:   "validation",
	fiber.StatusUnauthorized:          "unauthorized",
	fiber.StatusForbidden:             "unauthorized",
	fiber.StatusNotFound:              "not_found",
	fiber.StatusMethodNotAllowed:      "not_found",
	fiber.StatusRequestEntityTooLarge: "validation",
	fiber.StatusTooManyRequests:       "rate_limited",
}

// ErrorHandler renders every error as {"error","message"}. Anything not in the table is
// logged and answered with a generic 500 so internals never reach the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if !errors.Is(err, m.err) {
			continue
		}
		status := m.status
		if m.err == domain.ErrUnauthorized {
			if identity(c).UserID == "" {
				status = fiber.StatusUnauthorized
			} else {
				c.Status(status)
				applog.Security(c, "access.denied", map[string]any{"reason": err.Error()})
			}
		}
		return c.Status(status).JSON(fiber.Map{"error": m.kind, "message": err.Error()})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		kind, ok := fiberKinds[fe.Code]
		if !ok {
			kind = "request"
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": kind, "message": fe.Message})
	}

	c.Status(fiber.StatusInternalServerError)
	applog.Error(c, "server.error", err, nil)
	return c.JSON(fiber.Map{"error": "internal", "message": genericMessage})
}

// bind decodes a JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return validate.Struct(dst)
}

func pathID(c *fiber.Ctx) (string, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return "", fmt.Errorf("%w: invalid id", domain.ErrValidation)
	}
	return id, nil
}
