package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	queryGetItem = `SELECT id, name, category_id, price_per_unit, stock, updated_at FROM items WHERE id = $1`

	// The conditional update takes the row lock and checks stock in one statement,
	// so concurrent reservations on the same item serialize.
	queryTryReserve = `UPDATE items SET stock = stock - $1, updated_at = now() WHERE id = $2 AND stock >= $1 RETURNING price_per_unit`

	queryRelease = `UPDATE items SET stock = stock + $1, updated_at = now() WHERE id = $2 RETURNING stock`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var it domain.Item
	if err := row.Scan(&it.ID, &it.Name, &it.CategoryID, &it.PricePerUnit, &it.Stock, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func getItem(ctx context.Context, q dbtx, id int64) (*domain.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, queryGetItem, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// tryReserve decrements stock iff it covers quantity and returns the unit price
// read under the same row lock.
func tryReserve(ctx context.Context, q dbtx, id int64, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	var price decimal.Decimal
	err := q.QueryRowContext(ctx, queryTryReserve, quantity, id).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("reserve item %d: %w", id, err)
	}
	return price, true, nil
}

// release adds quantity back to the item. A missing item is reported with ok=false.
func release(ctx context.Context, q dbtx, id int64, quantity decimal.Decimal) (decimal.Decimal, bool, error) {
	var stock decimal.Decimal
	err := q.QueryRowContext(ctx, queryRelease, quantity, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if pqCode(err) == pqNumericOverflow {
		return decimal.Zero, false, domain.Invalid("stock of item %d would exceed the maximum", id)
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("release item %d: %w", id, err)
	}
	return stock, true, nil
}

func requirePositive(quantity decimal.Decimal) error {
	return domain.CheckQuantity(quantity)
}

// GetItem returns the item or domain.ErrItemNotFound.
func (r *Repository) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return getItem(ctx, r.db, id)
}

// TryReserve atomically decrements stock by quantity iff enough stock exists.
func (r *Repository) TryReserve(ctx context.Context, id int64, quantity decimal.Decimal) (bool, error) {
	if err := requirePositive(quantity); err != nil {
		return false, err
	}
	_, ok, err := tryReserve(ctx, r.db, id, quantity)
	return ok, err
}

// Release atomically returns quantity to stock. Releasing against a deleted item is a no-op.
func (r *Repository) Release(ctx context.Context, id int64, quantity decimal.Decimal) error {
	if err := requirePositive(quantity); err != nil {
		return err
	}
	_, _, err := release(ctx, r.db, id, quantity)
	return err
}

// AddStock is the admin restock path; unlike Release it reports a missing item.
func (r *Repository) AddStock(ctx context.Context, id int64, quantity decimal.Decimal) (decimal.Decimal, error) {
	if err := requirePositive(quantity); err != nil {
		return decimal.Zero, err
	}
	stock, ok, err := release(ctx, r.db, id, quantity)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, domain.ErrItemNotFound
	}
	return stock, nil
}
