package repos_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, id string) {
	t.Helper()
	require.NoError(t, repos.NewUserRepo(db).Insert(context.Background(),
		domain.User{ID: id, Email: id + "@test.local", Name: id, Hash: "x", Role: domain.RoleUser}))
}

func TestOpenDB_MigrationsAreIdempotent(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	require.NoError(t, repos.Seed(ctx, db))
	require.NoError(t, repos.Seed(ctx, db))

	products, err := repos.NewProductRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, 10, products[0].Stock)

	key, err := repos.NewSettingsRepo(db).PixKey(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
}

func TestOpenDB_ForeignKeysOnEveryConnection(t *testing.T) {
	db, err := repos.OpenDB("sqlite", filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// No idle pool: each statement below runs on a freshly opened connection.
	db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var on int
		require.NoError(t, db.Get(&on, `PRAGMA foreign_keys`))
		assert.Equal(t, 1, on)
	}
	err = repos.NewInventoryRepo(db).Insert(context.Background(), domain.GiftCard{
		ID: "g1", ProductID: "missing", Number: "4111111111111111", Expiry: "12/30", CVV: "123",
		HolderName: "X", HolderDocument: "0",
	})
	assert.Error(t, err)
}

func TestUnitOfWork_RollsBackAndJoins(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	seedUser(t, db, "u1")
	uow := repos.NewUnitOfWork(db)
	wallets := repos.NewWalletRepo(db)

	boom := errors.New("boom")
	err := uow.Run(ctx, func(ctx context.Context) error {
		require.True(t, repos.InTx(ctx))
		require.NoError(t, wallets.Credit(ctx, "u1", 500))
		return uow.Run(ctx, func(ctx context.Context) error {
			require.NoError(t, wallets.Credit(ctx, "u1", 500))
			return boom
		})
	})
	require.ErrorIs(t, err, boom)
	bal, err := wallets.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(0), bal)

	require.NoError(t, uow.Run(ctx, func(ctx context.Context) error {
		if err := wallets.Credit(ctx, "u1", 300); err != nil {
			return err
		}
		return uow.Run(ctx, func(ctx context.Context) error { return wallets.Credit(ctx, "u1", 200) })
	}))
	bal, err = wallets.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(500), bal)
}

func TestWalletRepo_DebitIsBounded(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	seedUser(t, db, "u1")
	wallets := repos.NewWalletRepo(db)
	require.NoError(t, wallets.Credit(ctx, "u1", 1000))

	ok, err := wallets.Debit(ctx, "u1", 1001)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = wallets.Debit(ctx, "u1", 1000)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = wallets.Debit(ctx, "nobody", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGiftCards_ClaimInvariantIsEnforced(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	require.NoError(t, repos.NewProductRepo(db).Insert(ctx, domain.Product{ID: "p", Name: "P", Price: 100}))
	require.NoError(t, repos.NewInventoryRepo(db).Insert(ctx, domain.GiftCard{ID: "c", ProductID: "p", Number: "4111110000000001", Expiry: "12/30", CVV: "123"}))

	_, err := db.Exec(`UPDATE gift_cards SET claimed = 1 WHERE id = 'c'`)
	assert.Error(t, err, "claimed without an order must violate the check constraint")
}

func TestOrderRepo_TransitionIsConditional(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	seedUser(t, db, "u1")
	orders := repos.NewOrderRepo(db)
	require.NoError(t, orders.Insert(ctx, domain.Order{
		ID: "o1", UserID: "u1", Total: 100, Status: domain.StatusPending, CreatedAt: "2026-01-01T00:00:00.000000Z",
	}))

	ok, err := orders.Transition(ctx, "o1", []domain.OrderStatus{domain.StatusAwaitingConfirmation}, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = orders.Transition(ctx, "o1", []domain.OrderStatus{domain.StatusPending, domain.StatusAwaitingConfirmation}, domain.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	o, err := orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.NotEmpty(t, o.CancelledAt)
	assert.Empty(t, o.PaidAt)

	_, err = orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOutboxRepo_PendingUntilPublished(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	outbox := repos.NewOutboxRepo(db)
	require.NoError(t, outbox.Add(ctx, "t", "k", "e1", []byte(`{"a":1}`)))
	require.NoError(t, outbox.Add(ctx, "t", "k", "e2", []byte(`{"a":2}`)))

	pending, err := outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e1", pending[0].EventType)
	assert.JSONEq(t, `{"a":1}`, string(pending[0].Payload))

	require.NoError(t, outbox.MarkFailed(ctx, pending[0].ID, "broker down"))
	require.NoError(t, outbox.MarkPublished(ctx, pending[1].ID))
	pending, err = outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "broker down", pending[0].LastError)
}

func TestAfterCommit_RunsOnlyOnCommit(t *testing.T) {
	db := memdb(t)
	uow := repos.NewUnitOfWork(db)
	ctx := context.Background()

	var ran []string
	_ = uow.Run(ctx, func(ctx context.Context) error {
		repos.AfterCommit(ctx, func() { ran = append(ran, "rolled back") })
		return errors.New("abort")
	})
	require.NoError(t, uow.Run(ctx, func(ctx context.Context) error {
		return uow.Run(ctx, func(ctx context.Context) error {
			repos.AfterCommit(ctx, func() { ran = append(ran, "committed") })
			assert.Empty(t, ran)
			return nil
		})
	}))
	repos.AfterCommit(ctx, func() { ran = append(ran, "immediate") })
	assert.Equal(t, []string{"committed", "immediate"}, ran)
}
