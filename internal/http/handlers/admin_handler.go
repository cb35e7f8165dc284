package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pixcards/internal/domain"
	applog "pixcards/internal/log"
	"pixcards/internal/services"
)

const adminListLimit = 200

type AdminHandler struct {
	Orders   *services.OrderService
	Vouchers *services.VoucherService
	Settings *services.SettingsService
	Catalog  *services.CatalogService
}

type voucherBatchRequest struct {
	Value    domain.Cents `json:"value" validate:"gt=0"`
	Quantity int          `json:"quantity" validate:"required,min=1,max=500"`
}

type pixConfigRequest struct {
	PixKey string `json:"pixKey" validate:"required,max=77"`
}

// OrdersDashboard is polled by the operator screen, newest first, optionally filtered by ?status=.
func (h *AdminHandler) OrdersDashboard(c *fiber.Ctx) error {
	status := domain.OrderStatus(c.Query("status"))
	orders, err := h.Orders.ListAll(c.UserContext(), status, c.QueryInt("limit", adminListLimit))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *AdminHandler) GenerateVouchers(c *fiber.Ctx) error {
	var req voucherBatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	codes, err := h.Vouchers.Generate(c.UserContext(), req.Value, req.Quantity)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "admin.vouchers.generate", map[string]any{"quantity": len(codes), "value": req.Value.String()})
	return c.JSON(fiber.Map{"codes": codes})
}

func (h *AdminHandler) ListVouchers(c *fiber.Ctx) error {
	vouchers, err := h.Vouchers.List(c.UserContext(), c.QueryInt("limit", adminListLimit))
	if err != nil {
		return err
	}
	return c.JSON(vouchers)
}

func (h *AdminHandler) PixConfig(c *fiber.Ctx) error {
	key, err := h.Settings.PixKey(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"pixKey": key})
}

func (h *AdminHandler) UpdatePixConfig(c *fiber.Ctx) error {
	var req pixConfigRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Settings.SetPixKey(c.UserContext(), req.PixKey); err != nil {
		return err
	}
	applog.Audit(c, "admin.pix_config.update", nil)
	return h.PixConfig(c)
}

// Stock lists total, available and claimed cards per product.
func (h *AdminHandler) Stock(c *fiber.Ctx) error {
	rows, err := h.Catalog.Stock(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}
