package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	accesslog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pixcards/internal/config"
	"pixcards/internal/events"
	"pixcards/internal/http/handlers"
	"pixcards/internal/idempotency"
	applog "pixcards/internal/log"
	"pixcards/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := applog.New(cfg.LogLevel, cfg.LogEnv, cfg.LogFile)
	if err != nil {
		log.Fatalf("[log] %v", err)
	}
	defer logger.Sync()
	applog.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if cfg.Seed {
		if err := repos.Seed(ctx, db); err != nil {
			logger.Fatal("seed database", zap.Error(err))
		}
	}

	// Idempotency store is optional
	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis not reachable, idempotency fails open until it is", zap.Error(err))
		}
		cancel()
		idem = idempotency.NewRedisStore(client)
	}

	var pub events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, logger.Named("kafka"))
	} else {
		pub = events.NewLogPublisher(logger.Named("events"))
	}
	defer pub.Close()
	relay := events.NewRelay(repos.NewOutboxRepo(db), pub, cfg.OutboxInterval, logger.Named("relay"))
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(ctx)
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Status(fiber.StatusTooManyRequests)
			applog.Security(c, "rate.global.hit", nil)
			return c.JSON(fiber.Map{"error": "rate_limited", "message": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(accesslog.New())

	deps := handlers.NewDeps(db, cfg, idem, logger)
	deps.Routes(app)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("http server stopped", zap.Error(err))
	}
	stop()
	<-relayDone
}
