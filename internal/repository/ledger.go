package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	orderColumns = `id, user_id, item_id, quantity, price, COALESCE(checkout_session_id, ''), created_at`

	queryListOrders  = `SELECT ` + orderColumns + ` FROM orders WHERE ($1::bigint IS NULL OR user_id = $1) ORDER BY id`
	queryGetOrder    = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	queryLockOrder   = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	queryDeleteOrder = `DELETE FROM orders WHERE id = $1`

	queryItemName = `SELECT name FROM items WHERE id = $1`

	queryInsertHistory = `INSERT INTO history (order_id, user_id, item_id, item_name, quantity, price, checkout_session_id, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8) RETURNING id, collected_at`

	queryListHistory = `SELECT id, order_id, user_id, item_id, item_name, quantity, price, COALESCE(checkout_session_id, ''), ordered_at, collected_at
		FROM history WHERE ($1::bigint IS NULL OR user_id = $1) ORDER BY collected_at DESC, id DESC`
)

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.ItemID, &o.Quantity, &o.Price, &o.CheckoutSessionID, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func userFilter(f domain.OrderFilter) sql.NullInt64 {
	if f.UserID == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *f.UserID, Valid: true}
}

func (r *Repository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, queryListOrders, userFilter(f))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return getOrder(ctx, r.db, queryGetOrder, id)
}

func getOrder(ctx context.Context, q dbtx, query string, id int64) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

func (r *Repository) ListHistory(ctx context.Context, f domain.OrderFilter) ([]domain.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, queryListHistory, userFilter(f))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var h domain.HistoryRecord
		if err := rows.Scan(&h.ID, &h.OrderID, &h.UserID, &h.ItemID, &h.ItemName, &h.Quantity, &h.Price,
			&h.CheckoutSessionID, &h.OrderedAt, &h.CollectedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CollectOrder moves an open order to history. Stock was taken at settlement and is not touched.
func (r *Repository) CollectOrder(ctx context.Context, orderID int64) (*domain.HistoryRecord, error) {
	var rec *domain.HistoryRecord
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrder(ctx, tx, queryLockOrder, orderID)
		if err != nil {
			return err
		}

		var itemName string
		if err := tx.QueryRowContext(ctx, queryItemName, o.ItemID).Scan(&itemName); err != nil {
			return fmt.Errorf("get item name %d: %w", o.ItemID, err)
		}

		h := domain.HistoryRecord{
			OrderID:           o.ID,
			UserID:            o.UserID,
			ItemID:            o.ItemID,
			ItemName:          itemName,
			Quantity:          o.Quantity,
			Price:             o.Price,
			CheckoutSessionID: o.CheckoutSessionID,
			OrderedAt:         o.CreatedAt,
		}
		if err := tx.QueryRowContext(ctx, queryInsertHistory, h.OrderID, h.UserID, h.ItemID, h.ItemName,
			h.Quantity, h.Price, h.CheckoutSessionID, h.OrderedAt).Scan(&h.ID, &h.CollectedAt); err != nil {
			return fmt.Errorf("insert history for order %d: %w", orderID, err)
		}
		if _, err := tx.ExecContext(ctx, queryDeleteOrder, orderID); err != nil {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}
		if err := appendOutbox(ctx, tx, domain.EventOrderCollected, strconv.FormatInt(orderID, 10), h); err != nil {
			return err
		}
		rec = &h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CancelOrder returns the order's quantity to stock and deletes the order.
// The caller must be allowed to cancel it; the check runs under the row lock.
func (r *Repository) CancelOrder(ctx context.Context, orderID int64, p domain.Principal) (*domain.Order, error) {
	var cancelled *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrder(ctx, tx, queryLockOrder, orderID)
		if err != nil {
			return err
		}
		if !p.CanCancel(*o) {
			return fmt.Errorf("%w: order %d belongs to another user", domain.ErrPermission, orderID)
		}
		if _, _, err := release(ctx, tx, o.ItemID, o.Quantity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, queryDeleteOrder, orderID); err != nil {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}
		if err := appendOutbox(ctx, tx, domain.EventOrderCancelled, strconv.FormatInt(orderID, 10), o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
