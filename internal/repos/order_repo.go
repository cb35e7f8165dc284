package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
	id, user_id, total, balance_applied, status, pix_payload, created_at,
	COALESCE(paid_at, '') AS paid_at,
	COALESCE(delivered_at, '') AS delivered_at,
	COALESCE(cancelled_at, '') AS cancelled_at,
	updated_at`

// Insert writes the order header and its frozen-price lines.
func (r *OrderRepo) Insert(ctx context.Context, o domain.Order) error {
	if o.CreatedAt == "" {
		o.CreatedAt = NowStamp()
	}
	var paidAt any
	if o.PaidAt != "" {
		paidAt = o.PaidAt
	}
	if _, err := execx(ctx, r.db, `
		INSERT INTO orders(id, user_id, total, balance_applied, status, pix_payload, created_at, paid_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.Total, o.BalanceApplied, o.Status, o.PixPayload, o.CreatedAt, paidAt, o.CreatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, it := range o.Items {
		if _, err := execx(ctx, r.db, `
			INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)
		`, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice); err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ProductID, err)
		}
	}
	return nil
}

// Get loads an order with its lines.
func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	if err := getx(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, notFound(err, "order %s", id)
	}
	items, err := r.Items(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := selectx(ctx, r.db, &items, `
		SELECT order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name, product_id
	`, orderID)
	return items, err
}

// ListByUser returns a customer's orders, newest first. Lines are not loaded.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := selectx(ctx, r.db, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`, userID)
	return out, err
}

// ListLatest is the operator dashboard feed, optionally filtered by status.
func (r *OrderRepo) ListLatest(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := []domain.Order{}
	var err error
	if status == "" {
		err = selectx(ctx, r.db, &out, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC, id LIMIT ?`, limit)
	} else {
		err = selectx(ctx, r.db, &out, `
			SELECT `+orderCols+` FROM orders
			WHERE status = ?
			ORDER BY created_at DESC, id
			LIMIT ?
		`, status, limit)
	}
	return out, err
}

// stampColumns are the per-status timestamps a transition may set.
var stampColumns = map[domain.OrderStatus]string{
	domain.StatusConfirmed: "paid_at",
	domain.StatusDelivered: "delivered_at",
	domain.StatusCancelled: "cancelled_at",
}

// Transition moves an order to `to` only if its current status is one of `from`.
// It reports whether the row changed.
func (r *OrderRepo) Transition(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	now := NowStamp()
	set := `status = ?, updated_at = ?`
	args := []any{string(to), now}
	if col, ok := stampColumns[to]; ok {
		set += `, ` + col + ` = ?`
		args = append(args, now)
	}
	states := make([]string, len(from))
	for i, st := range from {
		states[i] = string(st)
	}
	args = append(args, id, states)
	query, args, err := inx(`UPDATE orders SET `+set+` WHERE id = ? AND status IN (?)`, args...)
	if err != nil {
		return false, err
	}
	n, err := execx(ctx, r.db, query, args...)
	return n == 1, err
}
