package domain

type OrderStatus string

const (
	StatusPending              OrderStatus = "PENDING"
	StatusAwaitingConfirmation OrderStatus = "AWAITING_CONFIRMATION"
	StatusConfirmed            OrderStatus = "CONFIRMED"
	StatusDelivered            OrderStatus = "DELIVERED"
	StatusCancelled            OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingConfirmation, StatusConfirmed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PrePayment is true while inventory claims may still be released.
func (s OrderStatus) PrePayment() bool {
	return s == StatusPending || s == StatusAwaitingConfirmation
}

// SecretsVisible is true once the buyer may read the card secrets.
func (s OrderStatus) SecretsVisible() bool {
	return s == StatusConfirmed || s == StatusDelivered
}

type Order struct {
	ID             string      `db:"id" json:"id"`
	UserID         string      `db:"user_id" json:"userId"`
	Total          Cents       `db:"total" json:"total"`
	BalanceApplied Cents       `db:"balance_applied" json:"balanceApplied"`
	Status         OrderStatus `db:"status" json:"status"`
	PixPayload     string      `db:"pix_payload" json:"pixPayload,omitempty"`
	CreatedAt      string      `db:"created_at" json:"createdAt"`
	PaidAt         string      `db:"paid_at" json:"paidAt,omitempty"`
	DeliveredAt    string      `db:"delivered_at" json:"deliveredAt,omitempty"`
	CancelledAt    string      `db:"cancelled_at" json:"cancelledAt,omitempty"`
	UpdatedAt      string      `db:"updated_at" json:"updatedAt"`
	Items          []OrderItem `db:"-" json:"items"`
}

// Remaining is what is still owed over Pix.
func (o Order) Remaining() Cents { return o.Total - o.BalanceApplied }

type OrderItem struct {
	OrderID     string `db:"order_id" json:"-"`
	ProductID   string `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   Cents  `db:"unit_price" json:"unitPrice"`
}

func (i OrderItem) Subtotal() Cents { return i.UnitPrice * Cents(i.Quantity) }

type LineRequest struct {
	ProductID string
	Quantity  int
}

type CreateResult struct {
	OrderID        string      `json:"orderId"`
	Status         OrderStatus `json:"status"`
	PixPayload     *string     `json:"pixPayload"`
	Total          Cents       `json:"total"`
	BalanceApplied Cents       `json:"balanceApplied"`
}
