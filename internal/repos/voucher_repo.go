package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

type VoucherRepo struct{ db *sqlx.DB }

func NewVoucherRepo(db *sqlx.DB) *VoucherRepo { return &VoucherRepo{db: db} }

const voucherCols = `
	v.id, v.code, v.value, v.redeemed,
	COALESCE(v.redeemed_by, '') AS redeemed_by,
	COALESCE(u.name, '') AS redeemed_by_name,
	COALESCE(v.redeemed_at, '') AS redeemed_at,
	v.created_at`

func (r *VoucherRepo) Exists(ctx context.Context, code string) (bool, error) {
	var n int
	err := getx(ctx, r.db, &n, `SELECT COUNT(*) FROM vouchers WHERE code = ?`, code)
	return n > 0, err
}

func (r *VoucherRepo) Insert(ctx context.Context, v domain.Voucher) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO vouchers(id, code, value, created_at)
		VALUES (?, ?, ?, ?)
	`, v.ID, v.Code, v.Value, NowStamp())
	return err
}

func (r *VoucherRepo) Get(ctx context.Context, code string) (domain.Voucher, error) {
	var v domain.Voucher
	err := getx(ctx, r.db, &v, `
		SELECT `+voucherCols+`
		FROM vouchers v
		LEFT JOIN users u ON u.id = v.redeemed_by
		WHERE v.code = ?
	`, code)
	return v, notFound(err, "voucher")
}

// MarkRedeemed flips an unredeemed voucher. It reports false if the code is unknown or already used.
func (r *VoucherRepo) MarkRedeemed(ctx context.Context, code, userID string) (bool, error) {
	n, err := execx(ctx, r.db, `
		UPDATE vouchers
		SET redeemed = 1, redeemed_by = ?, redeemed_at = ?
		WHERE code = ? AND redeemed = 0
	`, userID, NowStamp(), code)
	return n == 1, err
}

// List returns the newest vouchers first, with the redeemer's name.
func (r *VoucherRepo) List(ctx context.Context, limit int) ([]domain.Voucher, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	out := []domain.Voucher{}
	err := selectx(ctx, r.db, &out, `
		SELECT `+voucherCols+`
		FROM vouchers v
		LEFT JOIN users u ON u.id = v.redeemed_by
		ORDER BY v.created_at DESC, v.code
		LIMIT ?
	`, limit)
	return out, err
}
