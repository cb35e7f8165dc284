package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	DBDriver string `env:"DB_DRIVER" env-default:"sqlite"`
	DBDSN    string `env:"DB_DSN" env-default:"pixcards.db"`
	Seed     bool   `env:"SEED" env-default:"false"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	LogEnv   string `env:"LOG_ENV" env-default:"local"`
	LogFile  string `env:"LOG_FILE"`

	// PixKey is only used when no key has been stored through the admin api.
	PixKey       string `env:"PIX_KEY"`
	MerchantName string `env:"MERCHANT_NAME" env-default:"ESPACO SETE STORE"`
	MerchantCity string `env:"MERCHANT_CITY" env-default:"SAO PAULO"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h"`

	KafkaBrokers   []string      `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic     string        `env:"KAFKA_TOPIC" env-default:"order_events"`
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL" env-default:"2s"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
}

// Load reads the environment, after layering an optional .env file (or ENV_FILE) on top.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER %q: want sqlite or postgres", cfg.DBDriver)
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_LEVEL=%s REDIS=%t KAFKA=%t",
		cfg.Port, cfg.DBDriver, cfg.LogLevel, cfg.RedisAddr != "", len(cfg.KafkaBrokers) > 0)
	return cfg, nil
}
