package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

// InventoryRepo owns the gift_cards table.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Candidates lists up to limit unclaimed cards of a product, oldest first.
func (r *InventoryRepo) Candidates(ctx context.Context, productID string, limit int) ([]string, error) {
	var ids []string
	err := selectx(ctx, r.db, &ids, `
		SELECT id FROM gift_cards
		WHERE product_id = ? AND claimed = 0
		ORDER BY created_at, id
		LIMIT ?
	`, productID, limit)
	return ids, err
}

// Claim marks one card as sold to orderID. It reports false when someone else got there first.
func (r *InventoryRepo) Claim(ctx context.Context, cardID, orderID string) (bool, error) {
	n, err := execx(ctx, r.db, `
		UPDATE gift_cards
		SET claimed = 1, order_id = ?, claimed_at = ?
		WHERE id = ? AND claimed = 0
	`, orderID, NowStamp(), cardID)
	return n == 1, err
}

// ReleaseOrder returns every card owned by orderID to the pool.
func (r *InventoryRepo) ReleaseOrder(ctx context.Context, orderID string) (int, error) {
	n, err := execx(ctx, r.db, `
		UPDATE gift_cards
		SET claimed = 0, order_id = NULL, claimed_at = NULL
		WHERE order_id = ?
	`, orderID)
	return int(n), err
}

func (r *InventoryRepo) Available(ctx context.Context, productID string) (int, error) {
	var n int
	err := getx(ctx, r.db, &n, `SELECT COUNT(*) FROM gift_cards WHERE product_id = ? AND claimed = 0`, productID)
	return n, err
}

// ClaimedBy lists the card ids owned by an order.
func (r *InventoryRepo) ClaimedBy(ctx context.Context, orderID string) ([]string, error) {
	ids := []string{}
	err := selectx(ctx, r.db, &ids, `SELECT id FROM gift_cards WHERE order_id = ? ORDER BY claimed_at, id`, orderID)
	return ids, err
}

// SearchBIN counts unclaimed cards per product whose number starts with bin.
func (r *InventoryRepo) SearchBIN(ctx context.Context, bin string) ([]domain.BINMatch, error) {
	out := []domain.BINMatch{}
	err := selectx(ctx, r.db, &out, `
		SELECT g.product_id, p.name AS product_name, COUNT(*) AS available
		FROM gift_cards g
		JOIN products p ON p.id = g.product_id
		WHERE g.claimed = 0 AND g.number LIKE ?
		GROUP BY g.product_id, p.name
		ORDER BY p.name
	`, bin+"%")
	for i := range out {
		out[i].BIN = bin
	}
	return out, err
}

// Secrets returns the credential fields of the cards sold to an order.
func (r *InventoryRepo) Secrets(ctx context.Context, orderID string) ([]domain.CardSecret, error) {
	out := []domain.CardSecret{}
	err := selectx(ctx, r.db, &out, `
		SELECT g.id, p.name AS product_name, g.number, g.expiry, g.cvv,
		       g.holder_name, g.holder_document, COALESCE(g.claimed_at, '') AS claimed_at
		FROM gift_cards g
		JOIN products p ON p.id = g.product_id
		WHERE g.order_id = ?
		ORDER BY p.name, g.claimed_at, g.id
	`, orderID)
	return out, err
}

// Summary is the admin stock overview.
func (r *InventoryRepo) Summary(ctx context.Context) ([]domain.StockRow, error) {
	out := []domain.StockRow{}
	err := selectx(ctx, r.db, &out, `
		SELECT p.id AS product_id, p.name,
		       COUNT(g.id) AS total,
		       COALESCE(SUM(CASE WHEN g.claimed = 0 THEN 1 ELSE 0 END), 0) AS available,
		       COALESCE(SUM(CASE WHEN g.claimed = 1 THEN 1 ELSE 0 END), 0) AS claimed
		FROM products p
		LEFT JOIN gift_cards g ON g.product_id = p.id
		GROUP BY p.id, p.name
		ORDER BY p.name
	`)
	return out, err
}

func (r *InventoryRepo) Insert(ctx context.Context, g domain.GiftCard) error {
	if g.CreatedAt == "" {
		g.CreatedAt = NowStamp()
	}
	_, err := execx(ctx, r.db, `
		INSERT INTO gift_cards(id, product_id, number, expiry, cvv, holder_name, holder_document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.ProductID, g.Number, g.Expiry, g.CVV, g.HolderName, g.HolderDocument, g.CreatedAt)
	return err
}
