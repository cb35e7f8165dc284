package domain

type Product struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Price       Cents  `db:"price" json:"price"`
	Stock       int    `db:"stock" json:"stock"`
	CreatedAt   string `db:"created_at" json:"-"`
}

// GiftCard is one serialized inventory unit. The secret fields are only ever exposed
// through CardSecret once the owning order is paid.
type GiftCard struct {
	ID             string `db:"id"`
	ProductID      string `db:"product_id"`
	Number         string `db:"number"`
	Expiry         string `db:"expiry"`
	CVV            string `db:"cvv"`
	HolderName     string `db:"holder_name"`
	HolderDocument string `db:"holder_document"`
	Claimed        bool   `db:"claimed"`
	OrderID        string `db:"order_id"`
	ClaimedAt      string `db:"claimed_at"`
	CreatedAt      string `db:"created_at"`
}

type CardSecret struct {
	ID             string `db:"id" json:"id"`
	ProductName    string `db:"product_name" json:"productName"`
	Number         string `db:"number" json:"number"`
	Expiry         string `db:"expiry" json:"expiry"`
	CVV            string `db:"cvv" json:"cvv"`
	HolderName     string `db:"holder_name" json:"holderName"`
	HolderDocument string `db:"holder_document" json:"holderDocument"`
	ClaimedAt      string `db:"claimed_at" json:"soldAt"`
}

// BINMatch counts unclaimed cards of a product whose number starts with a BIN.
type BINMatch struct {
	ProductID   string `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	BIN         string `db:"-" json:"bin"`
	Available   int    `db:"available" json:"available"`
}

type StockRow struct {
	ProductID string `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Total     int    `db:"total" json:"total"`
	Available int    `db:"available" json:"available"`
	Claimed   int    `db:"claimed" json:"claimed"`
}

type Voucher struct {
	ID             string `db:"id" json:"id"`
	Code           string `db:"code" json:"code"`
	Value          Cents  `db:"value" json:"value"`
	Redeemed       bool   `db:"redeemed" json:"redeemed"`
	RedeemedBy     string `db:"redeemed_by" json:"redeemedBy,omitempty"`
	RedeemedByName string `db:"redeemed_by_name" json:"redeemedByName,omitempty"`
	RedeemedAt     string `db:"redeemed_at" json:"redeemedAt,omitempty"`
	CreatedAt      string `db:"created_at" json:"createdAt"`
}

type RedeemResult struct {
	ValueCredited Cents `json:"valueCredited"`
	NewBalance    Cents `json:"newBalance"`
}

type EntryReason string

const (
	ReasonOrderDebit    EntryReason = "ORDER_DEBIT"
	ReasonOrderRefund   EntryReason = "ORDER_REFUND"
	ReasonVoucherCredit EntryReason = "VOUCHER_CREDIT"
)

type WalletEntry struct {
	ID        int64       `db:"id" json:"id"`
	UserID    string      `db:"user_id" json:"-"`
	Delta     Cents       `db:"delta" json:"delta"`
	Reason    EntryReason `db:"reason" json:"reason"`
	Reference string      `db:"reference" json:"reference"`
	CreatedAt string      `db:"created_at" json:"createdAt"`
}

type OutboxEvent struct {
	ID          int64  `db:"id"`
	Topic       string `db:"topic"`
	EventKey    string `db:"event_key"`
	EventType   string `db:"event_type"`
	Payload     []byte `db:"payload"`
	Attempts    int    `db:"attempts"`
	LastError   string `db:"last_error"`
	CreatedAt   string `db:"created_at"`
	PublishedAt string `db:"published_at"`
}
