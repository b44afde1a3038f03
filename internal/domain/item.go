package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a catalog entry with its remaining stock.
// Stock is a weight or a unit count and is never negative.
type Item struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Stock        decimal.Decimal `json:"stock"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InStock reports whether the item has any stock left.
func (i Item) InStock() bool {
	return i.Stock.IsPositive()
}

// Covers reports whether the current stock satisfies the requested quantity.
func (i Item) Covers(quantity decimal.Decimal) bool {
	return i.Stock.GreaterThanOrEqual(quantity)
}

// Stored precision of quantities (stock, order lines) and unit prices.
const (
	QuantityPlaces = 3
	PricePlaces    = 2
)

var (
	maxQuantity = decimal.New(1, 12-QuantityPlaces)
	maxPrice    = decimal.New(1, 12-PricePlaces)
)

// CheckQuantity rejects quantities that are not positive, carry more than
// QuantityPlaces decimals or do not fit a stock column.
func CheckQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return Invalid("quantity must be a positive number")
	}
	if q.Exponent() < -QuantityPlaces && !q.Equal(q.Truncate(QuantityPlaces)) {
		return Invalid("quantity %s has more than %d decimal places", q.String(), QuantityPlaces)
	}
	if q.GreaterThanOrEqual(maxQuantity) {
		return Invalid("quantity must be less than %s", maxQuantity.String())
	}
	return nil
}

// CheckStock is CheckQuantity that also allows zero.
func CheckStock(q decimal.Decimal) error {
	if q.IsZero() {
		return nil
	}
	if q.IsNegative() {
		return Invalid("stock must not be negative")
	}
	return CheckQuantity(q)
}

// CheckPrice rejects negative prices, sub-cent prices and prices that do not fit.
func CheckPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return Invalid("price must not be negative")
	}
	if p.Exponent() < -PricePlaces && !p.Equal(p.Truncate(PricePlaces)) {
		return Invalid("price %s has more than %d decimal places", p.String(), PricePlaces)
	}
	if p.GreaterThanOrEqual(maxPrice) {
		return Invalid("price must be less than %s", maxPrice.String())
	}
	return nil
}
