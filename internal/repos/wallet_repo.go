package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

type WalletRepo struct{ db *sqlx.DB }

func NewWalletRepo(db *sqlx.DB) *WalletRepo { return &WalletRepo{db: db} }

// Balance is zero for users that never had a wallet row.
func (r *WalletRepo) Balance(ctx context.Context, userID string) (domain.Cents, error) {
	var b domain.Cents
	err := getx(ctx, r.db, &b, `SELECT balance FROM wallets WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return b, err
}

// Debit subtracts amount only if the balance covers it. It reports false otherwise.
func (r *WalletRepo) Debit(ctx context.Context, userID string, amount domain.Cents) (bool, error) {
	n, err := execx(ctx, r.db, `
		UPDATE wallets
		SET balance = balance - ?, updated_at = ?
		WHERE user_id = ? AND balance >= ?
	`, amount, NowStamp(), userID, amount)
	return n == 1, err
}

func (r *WalletRepo) Credit(ctx context.Context, userID string, amount domain.Cents) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO wallets(user_id, balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET balance = wallets.balance + excluded.balance, updated_at = excluded.updated_at
	`, userID, amount, NowStamp())
	return err
}

func (r *WalletRepo) AddEntry(ctx context.Context, e domain.WalletEntry) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO wallet_entries(user_id, delta, reason, reference, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.UserID, e.Delta, string(e.Reason), e.Reference, NowStamp())
	return err
}

// Entries returns the newest entries first.
func (r *WalletRepo) Entries(ctx context.Context, userID string, limit int) ([]domain.WalletEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out := []domain.WalletEntry{}
	err := selectx(ctx, r.db, &out, `
		SELECT id, user_id, delta, reason, reference, created_at
		FROM wallet_entries
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	return out, err
}
