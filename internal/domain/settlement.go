package domain

import "github.com/shopspring/decimal"

// SettlementLine is one (item, quantity) pair taken from verified checkout metadata.
type SettlementLine struct {
	ItemID   int64
	Quantity decimal.Decimal
}

// Settlement is the input of the settlement transaction for one completed checkout.
type Settlement struct {
	CheckoutSessionID string
	EventID           string
	UserID            int64
	Lines             []SettlementLine
}

type ShortfallReason string

const (
	ShortfallInsufficientStock ShortfallReason = "insufficient_stock"
	ShortfallItemMissing       ShortfallReason = "item_missing"
)

// Shortfall records a line skipped at settlement. It is not an error.
type Shortfall struct {
	ItemID    int64
	Requested decimal.Decimal
	Available decimal.Decimal
	Reason    ShortfallReason
}

type SettlementResult struct {
	// Duplicate is set when the checkout session was already settled.
	Duplicate   bool
	UnknownUser bool
	Orders      []Order
	Shortfalls  []Shortfall
}
