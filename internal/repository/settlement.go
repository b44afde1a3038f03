package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	queryClaimSettlement = `INSERT INTO checkout_settlements (checkout_session_id, event_id, user_id) VALUES ($1, $2, $3)
		ON CONFLICT (checkout_session_id) DO NOTHING`

	queryAccountExists = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`

	queryInsertOrder = `INSERT INTO orders (user_id, item_id, quantity, price, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
)

// SettleCheckout commits a completed checkout in one transaction: for every line it
// decrements stock and inserts the order, or records a shortfall and moves on.
// A checkout session settles at most once; replays come back with Duplicate set.
// Any storage failure rolls back the whole checkout and wraps domain.ErrTransaction.
func (r *Repository) SettleCheckout(ctx context.Context, s domain.Settlement) (*domain.SettlementResult, error) {
	lines := make([]domain.SettlementLine, len(s.Lines))
	copy(lines, s.Lines)
	// Fixed lock order across concurrent settlements.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

	var res *domain.SettlementResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res = &domain.SettlementResult{}

		claim, err := tx.ExecContext(ctx, queryClaimSettlement, s.CheckoutSessionID, s.EventID, s.UserID)
		if err != nil {
			return fmt.Errorf("claim checkout %s: %w", s.CheckoutSessionID, err)
		}
		if n, err := claim.RowsAffected(); err != nil {
			return fmt.Errorf("claim checkout %s: %w", s.CheckoutSessionID, err)
		} else if n == 0 {
			res.Duplicate = true
			return nil
		}

		var known bool
		if err := tx.QueryRowContext(ctx, queryAccountExists, s.UserID).Scan(&known); err != nil {
			return fmt.Errorf("check account %d: %w", s.UserID, err)
		}
		if !known {
			res.UnknownUser = true
			return nil
		}

		for _, line := range lines {
			price, ok, err := tryReserve(ctx, tx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				sf, err := shortfall(ctx, tx, line)
				if err != nil {
					return err
				}
				res.Shortfalls = append(res.Shortfalls, sf)
				continue
			}

			o := domain.Order{
				UserID:            s.UserID,
				ItemID:            line.ItemID,
				Quantity:          line.Quantity,
				Price:             price.Mul(line.Quantity).Round(2),
				CheckoutSessionID: s.CheckoutSessionID,
			}
			if err := tx.QueryRowContext(ctx, queryInsertOrder, o.UserID, o.ItemID, o.Quantity, o.Price, o.CheckoutSessionID).
				Scan(&o.ID, &o.CreatedAt); err != nil {
				return fmt.Errorf("insert order for item %d: %w", line.ItemID, err)
			}
			if err := appendOutbox(ctx, tx, domain.EventOrderSettled, strconv.FormatInt(o.ID, 10), o); err != nil {
				return err
			}
			res.Orders = append(res.Orders, o)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: settle checkout %s: %w", domain.ErrTransaction, s.CheckoutSessionID, err)
	}
	return res, nil
}

func shortfall(ctx context.Context, q dbtx, line domain.SettlementLine) (domain.Shortfall, error) {
	sf := domain.Shortfall{ItemID: line.ItemID, Requested: line.Quantity, Reason: domain.ShortfallItemMissing}
	it, err := getItem(ctx, q, line.ItemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		return sf, nil
	}
	if err != nil {
		return sf, err
	}
	sf.Reason = domain.ShortfallInsufficientStock
	sf.Available = it.Stock
	return sf, nil
}
