package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"pixcards/internal/idempotency"
	applog "pixcards/internal/log"
	"pixcards/internal/metrics"
)

// Timeout bounds the context every handler passes down to the services.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Routes mounts the JSON API under /api/v1 plus the health and metrics endpoints.
func (d *Deps) Routes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1", Timeout(d.Timeout))
	user := RequireUser(d.Auth)
	idem := idempotency.New(d.Idem, d.IdemTTL, d.Logger.Named("idempotency"))

	api.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			c.Status(fiber.StatusTooManyRequests)
			applog.Security(c, "rate.login.hit", nil)
			return c.JSON(fiber.Map{"error": "rate_limited", "message": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", user, d.AuthHandler.Logout)

	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/bin", user, d.ProductHandler.SearchBIN)

	api.Post("/orders", user, idem, d.OrderHandler.Create)
	api.Get("/orders", user, d.OrderHandler.List)
	api.Get("/orders/:id", user, d.OrderHandler.Get)
	api.Put("/orders/:id/status", user, d.OrderHandler.UpdateStatus)
	api.Get("/orders/:id/giftcards", user, d.OrderHandler.GiftCards)

	api.Get("/wallet", user, d.WalletHandler.Show)
	api.Post("/vouchers/redeem", user, idem, d.VoucherHandler.Redeem)

	admin := api.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/orders", d.AdminHandler.OrdersDashboard)
	admin.Post("/vouchers", d.AdminHandler.GenerateVouchers)
	admin.Get("/vouchers", d.AdminHandler.ListVouchers)
	admin.Get("/pix-config", d.AdminHandler.PixConfig)
	admin.Put("/pix-config", d.AdminHandler.UpdatePixConfig)
	admin.Get("/stock", d.AdminHandler.Stock)
}
