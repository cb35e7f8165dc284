package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pixcards/internal/domain"
	applog "pixcards/internal/log"
	"pixcards/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type lineRequest struct {
	ProductID string `json:"productId" validate:"required,resid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

type createOrderRequest struct {
	Items                 []lineRequest `json:"items" validate:"required,min=1,max=50,dive"`
	WalletAmountRequested domain.Cents  `json:"walletAmountRequested" validate:"gte=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING AWAITING_CONFIRMATION CONFIRMED DELIVERED CANCELLED"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := bind(c, &req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"route": "orders.create", "error": err.Error()})
		return err
	}
	lines := make([]domain.LineRequest, len(req.Items))
	for i, it := range req.Items {
		lines[i] = domain.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	res, err := h.Orders.Create(c.UserContext(), identity(c).UserID, lines, req.WalletAmountRequested)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "order.create", map[string]any{
		"order_id":        res.OrderID,
		"status":          res.Status,
		"total":           res.Total.String(),
		"balance_applied": res.BalanceApplied.String(),
	})
	return c.JSON(res)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.ListForUser(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	o, err := h.Orders.Get(c.UserContext(), id, identity(c))
	if err != nil {
		return err
	}
	return c.JSON(o)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	who := identity(c)
	o, err := h.Orders.UpdateStatus(c.UserContext(), id, domain.OrderStatus(req.Status), who)
	if err != nil {
		return err
	}
	applog.Audit(c, "order.status.update", map[string]any{"order_id": id, "status": o.Status, "admin": who.IsAdmin()})
	return c.JSON(o)
}

// GiftCards returns the card secrets of a paid order. Access is audited; the secrets are not.
func (h *OrderHandler) GiftCards(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cards, err := h.Orders.Secrets(c.UserContext(), id, identity(c))
	if err != nil {
		return err
	}
	applog.Audit(c, "order.giftcards.view", map[string]any{"order_id": id, "count": len(cards)})
	return c.JSON(cards)
}
