package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pixcards/internal/log"
	"pixcards/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// SearchBIN answers "do you have stock for cards starting with these digits" without
// revealing any card field beyond the prefix the caller already knows.
func (h *ProductHandler) SearchBIN(c *fiber.Ctx) error {
	matches, err := h.Catalog.SearchBIN(c.UserContext(), c.Query("bin"))
	if err != nil {
		return err
	}
	applog.Info(c, "catalog.bin.search", map[string]any{"bin": c.Query("bin"), "products": len(matches)})
	return c.JSON(matches)
}
