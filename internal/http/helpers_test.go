package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"pixcards/internal/config"
	"pixcards/internal/domain"
	"pixcards/internal/http/handlers"
	"pixcards/internal/idempotency"
	applog "pixcards/internal/log"
	"pixcards/internal/repos"
)

const (
	adminEmail  = "admin@pixcards.test"
	clientEmail = "cliente@pixcards.test"
	otherEmail  = "outro@pixcards.test"
	password    = "Passw0rd!"
)

type harness struct {
	app  *fiber.App
	db   *sqlx.DB
	logs *observer.ObservedLogs
}

// newHarness serves the full API over a seeded in-memory database and a miniredis
// idempotency store. Request logs are captured in h.logs.
func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, repos.Seed(ctx, db))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repos.NewUserRepo(db).Insert(ctx, domain.User{
		ID: "u-outro", Email: otherEmail, Name: "Outro", Hash: string(hash), Role: domain.RoleUser,
	}))

	core, logs := observer.New(zapcore.InfoLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := config.Config{
		MerchantName:   "ESPACO SETE STORE",
		MerchantCity:   "SAO PAULO",
		KafkaTopic:     "order_events",
		IdempotencyTTL: time.Hour,
		HTTPTimeout:    5 * time.Second,
	}
	deps := handlers.NewDeps(db, cfg, idempotency.NewRedisStore(client), zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	deps.Routes(app)
	return &harness{app: app, db: db, logs: logs}
}

// do sends a JSON request. hdr holds header name/value pairs.
func (h *harness) do(t *testing.T, method, path, token string, body any, hdr ...string) (int, []byte, http.Header) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out, resp.Header
}

func (h *harness) login(t *testing.T, email string) string {
	t.Helper()
	status, body, _ := h.do(t, "POST", "/api/v1/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func line(productID string, qty int) map[string]any {
	return map[string]any{"productId": productID, "quantity": qty}
}
