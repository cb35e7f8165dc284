package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
	p.id, p.name, p.description, p.price, p.created_at,
	(SELECT COUNT(*) FROM gift_cards g WHERE g.product_id = p.id AND g.claimed = 0) AS stock`

// List returns every product with its live stock count.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := selectx(ctx, r.db, &out, `SELECT `+productCols+` FROM products p ORDER BY p.price, p.name`)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := getx(ctx, r.db, &p, `SELECT `+productCols+` FROM products p WHERE p.id = ?`, id)
	return p, notFound(err, "product %s", id)
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) error {
	if p.CreatedAt == "" {
		p.CreatedAt = NowStamp()
	}
	_, err := execx(ctx, r.db, `
		INSERT INTO products(id, name, description, price, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price, p.CreatedAt)
	return err
}
