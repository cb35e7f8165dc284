package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pixcards/internal/services"
)

const walletEntriesShown = 50

type WalletHandler struct {
	Wallet *services.WalletService
}

func (h *WalletHandler) Show(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := identity(c).UserID
	balance, err := h.Wallet.Balance(ctx, userID)
	if err != nil {
		return err
	}
	entries, err := h.Wallet.Entries(ctx, userID, walletEntriesShown)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"balance": balance, "entries": entries})
}
