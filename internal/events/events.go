// Package events defines the order event payloads and relays them from the outbox to a broker.
package events

import "encoding/json"

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeVoucherRedeemed    = "voucher.redeemed"
)

type OrderCreated struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Total          string `json:"total"`
	BalanceApplied string `json:"balance_applied"`
	CreatedAt      string `json:"created_at"`
}

type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	// Reason is "balance" when the wallet covered the whole order at checkout.
	Reason    string `json:"reason,omitempty"`
	ChangedAt string `json:"changed_at"`
}

type VoucherRedeemed struct {
	Code       string `json:"code"`
	UserID     string `json:"user_id"`
	Value      string `json:"value"`
	RedeemedAt string `json:"redeemed_at"`
}

// Message is what a Publisher sends.
type Message struct {
	Topic string
	Key   string
	Type  string
	Value json.RawMessage
}
