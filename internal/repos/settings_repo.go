package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SettingsRepo holds the single payment_config row.
type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// PixKey returns "" when no key was stored yet.
func (r *SettingsRepo) PixKey(ctx context.Context) (string, error) {
	var key string
	err := getx(ctx, r.db, &key, `SELECT pix_key FROM payment_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return key, err
}

func (r *SettingsRepo) SetPixKey(ctx context.Context, key string) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO payment_config(id, pix_key, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET pix_key = excluded.pix_key, updated_at = excluded.updated_at
	`, key, NowStamp())
	return err
}
