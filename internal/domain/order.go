package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an open, paid order waiting for collection.
type Order struct {
	ID                int64           `json:"order_id"`
	UserID            int64           `json:"u_id"`
	ItemID            int64           `json:"item_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// HistoryRecord is the immutable copy of a collected order.
type HistoryRecord struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	UserID            int64           `json:"u_id"`
	ItemID            int64           `json:"item_id"`
	ItemName          string          `json:"item_name"`
	Quantity          decimal.Decimal `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	OrderedAt         time.Time       `json:"ordered_at"`
	CollectedAt       time.Time       `json:"collected_at"`
}

// OrderFilter narrows ledger listings. A nil UserID lists every user.
type OrderFilter struct {
	UserID *int64
}
