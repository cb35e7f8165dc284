package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "pixcards/internal/log"
	"pixcards/internal/services"
)

type VoucherHandler struct {
	Vouchers *services.VoucherService
}

type redeemRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

func (h *VoucherHandler) Redeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.Vouchers.Redeem(c.UserContext(), req.Code, identity(c).UserID)
	if err != nil {
		applog.Security(c, "voucher.redeem.fail", map[string]any{"code": maskCode(req.Code), "error": err.Error()})
		return err
	}
	applog.Audit(c, "voucher.redeem", map[string]any{"code": maskCode(req.Code), "value": res.ValueCredited.String()})
	return c.JSON(res)
}

// maskCode keeps the last four characters so log lines can be correlated without
// making a live code readable.
func maskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return "****" + code[len(code)-4:]
}
