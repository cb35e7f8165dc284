package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "ESPACO SETE STORE", cfg.MerchantName)
	assert.Equal(t, 2*time.Second, cfg.OutboxInterval)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("PIX_KEY=file-key\nKAFKA_BROKERS=a:9092,b:9092\n"), 0o600))
	t.Setenv("ENV_FILE", file)
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Cleanup(func() {
		os.Unsetenv("PIX_KEY")
		os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.PixKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_DRIVER", "mysql")
	_, err := config.Load()
	assert.Error(t, err)
}
