package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
	"pixcards/internal/services"
)

const pixKey = "4a2a70fd-48f0-4a15-9419-1c16fa5703c3"

type env struct {
	db       *sqlx.DB
	uow      *repos.UnitOfWork
	alloc    *services.Allocator
	wallet   *services.WalletService
	vouchers *services.VoucherService
	orders   *services.OrderService
	outbox   *repos.OutboxRepo
}

// newEnv builds the services over a fresh in-memory database holding users u1, u2 and admin.
func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := repos.NewUserRepo(db)
	for _, u := range []domain.User{
		{ID: "u1", Email: "u1@test.local", Name: "User One", Hash: "x", Role: domain.RoleUser},
		{ID: "u2", Email: "u2@test.local", Name: "User Two", Hash: "x", Role: domain.RoleUser},
		{ID: "admin", Email: "admin@test.local", Name: "Admin", Hash: "x", Role: domain.RoleAdmin},
	} {
		require.NoError(t, users.Insert(ctx, u))
	}

	uow := repos.NewUnitOfWork(db)
	orderRepo := repos.NewOrderRepo(db)
	outbox := repos.NewOutboxRepo(db)
	alloc := services.NewAllocator(repos.NewInventoryRepo(db), orderRepo, uow)
	wallet := services.NewWalletService(repos.NewWalletRepo(db), uow)
	settings := services.NewSettingsService(repos.NewSettingsRepo(db), pixKey)
	e := &env{
		db:       db,
		uow:      uow,
		alloc:    alloc,
		wallet:   wallet,
		outbox:   outbox,
		vouchers: services.NewVoucherService(repos.NewVoucherRepo(db), wallet, outbox, uow, "order_events", zap.NewNop()),
		orders: &services.OrderService{
			Orders:   orderRepo,
			Products: repos.NewProductRepo(db),
			Alloc:    alloc,
			Wallet:   wallet,
			Settings: settings,
			Outbox:   outbox,
			UoW:      uow,
			Merchant: services.Merchant{Name: "ESPACO SETE STORE", City: "SAO PAULO"},
			Topic:    "order_events",
			Logger:   zap.NewNop(),
		},
	}
	return e
}

// addProduct inserts a product with n cards whose creation times increase with their index.
func (e *env) addProduct(t *testing.T, id string, price domain.Cents, n int) []string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repos.NewProductRepo(e.db).Insert(ctx, domain.Product{ID: id, Name: "Card " + id, Price: price}))
	inv := repos.NewInventoryRepo(e.db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("%s-card-%02d", id, i)
		require.NoError(t, inv.Insert(ctx, domain.GiftCard{
			ID:        ids[i],
			ProductID: id,
			Number:    fmt.Sprintf("411111%010d", i),
			Expiry:    "12/30",
			CVV:       "123",
			CreatedAt: base.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05.000000Z"),
		}))
	}
	return ids
}

// addOrder inserts a bare PENDING order so allocator tests have something to claim for.
func (e *env) addOrder(t *testing.T, id, userID string) {
	t.Helper()
	require.NoError(t, repos.NewOrderRepo(e.db).Insert(context.Background(), domain.Order{
		ID: id, UserID: userID, Total: 0, Status: domain.StatusPending,
	}))
}

func (e *env) credit(t *testing.T, userID string, amount domain.Cents) {
	t.Helper()
	require.NoError(t, e.wallet.Credit(context.Background(), userID, amount, domain.ReasonVoucherCredit, "test"))
}

func (e *env) balance(t *testing.T, userID string) domain.Cents {
	t.Helper()
	b, err := e.wallet.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

var (
	user1 = domain.Identity{UserID: "u1", Role: domain.RoleUser}
	user2 = domain.Identity{UserID: "u2", Role: domain.RoleUser}
	admin = domain.Identity{UserID: "admin", Role: domain.RoleAdmin}
)
