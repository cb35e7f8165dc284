package idempotency

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"pixcards/internal/domain"
)

const (
	HeaderKey = "Idempotency-Key"
	HeaderHit = "X-Idempotency-Hit"
	lockTTL   = 30 * time.Second
)

// New returns a fiber middleware. Keys are scoped to the caller and the route, so two users
// sending the same key never see each other's responses. Store failures let the request through.
func New(store Store, ttl time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderKey)
		if key == "" || store == nil {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation", "message": "Idempotency-Key is too long"})
		}
		scoped := scope(c) + ":" + c.Method() + ":" + c.Path() + ":" + key
		ctx := c.UserContext()

		cached, err := store.Get(ctx, scoped)
		if err != nil {
			logger.Error("idempotency lookup failed", zap.Error(err))
			return c.Next()
		}
		if cached != nil {
			return replay(c, cached, logger)
		}

		locked, err := store.Lock(ctx, scoped, lockTTL)
		if err != nil {
			logger.Error("idempotency lock failed", zap.Error(err))
			return c.Next()
		}
		if !locked {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "A request with this Idempotency-Key is still in progress."})
		}
		defer func() {
			if err := store.Unlock(context.WithoutCancel(ctx), scoped); err != nil {
				logger.Error("idempotency unlock failed", zap.Error(err))
			}
		}()

		// The holder before us may have saved its response and unlocked between our lookup and our lock.
		cached, err = store.Get(ctx, scoped)
		if err != nil {
			logger.Error("idempotency lookup failed", zap.Error(err))
		} else if cached != nil {
			return replay(c, cached, logger)
		}

		if err := c.Next(); err != nil {
			// Render the error now so it can be recorded like any other response.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := CachedResponse{
			StatusCode:  status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(context.WithoutCancel(ctx), scoped, resp, ttl); err != nil {
			logger.Error("idempotency save failed", zap.Error(err))
		}
		return nil
	}
}

func replay(c *fiber.Ctx, cached *CachedResponse, logger *zap.Logger) error {
	logger.Info("idempotency cache hit", zap.String("path", c.Path()))
	c.Set(HeaderHit, "true")
	c.Set(fiber.HeaderContentType, cached.ContentType)
	return c.Status(cached.StatusCode).Send(cached.Body)
}

func scope(c *fiber.Ctx) string {
	if id, ok := c.Locals("identity").(domain.Identity); ok && id.UserID != "" {
		return id.UserID
	}
	return "anon"
}
