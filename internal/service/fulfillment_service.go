package service

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.uber.org/zap"
)

type Ledger interface {
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	ListHistory(ctx context.Context, f domain.OrderFilter) ([]domain.HistoryRecord, error)
	CollectOrder(ctx context.Context, orderID int64) (*domain.HistoryRecord, error)
	CancelOrder(ctx context.Context, orderID int64, p domain.Principal) (*domain.Order, error)
}

// FulfillmentService moves open orders to history or cancels them.
type FulfillmentService struct {
	ledger  Ledger
	metrics *metrics.Metrics
}

func NewFulfillmentService(ledger Ledger, m *metrics.Metrics) *FulfillmentService {
	if m == nil {
		m = metrics.NewNop()
	}
	return &FulfillmentService{ledger: ledger, metrics: m}
}

// Collect marks an open order fulfilled. Admin only.
func (s *FulfillmentService) Collect(ctx context.Context, p domain.Principal, orderID int64) (*domain.HistoryRecord, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	rec, err := s.ledger.CollectOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransitions.WithLabelValues("collected", string(p.Role)).Inc()
	logger.FromContext(ctx).Info("order_collected",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", rec.UserID),
		zap.Int64("by", p.ID))
	return rec, nil
}

// Cancel deletes an open order and returns its quantity to stock.
// Admins may cancel any order, customers only their own.
func (s *FulfillmentService) Cancel(ctx context.Context, p domain.Principal, orderID int64) (*domain.Order, error) {
	o, err := s.ledger.CancelOrder(ctx, orderID, p)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransitions.WithLabelValues("cancelled", string(p.Role)).Inc()
	logger.FromContext(ctx).Info("order_cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("item_id", o.ItemID),
		zap.String("released", o.Quantity.String()),
		zap.Int64("by", p.ID))
	return o, nil
}

// Orders lists open orders. Customers always see only their own; admins may filter by user.
func (s *FulfillmentService) Orders(ctx context.Context, p domain.Principal, userID *int64) ([]domain.Order, error) {
	f, err := scopeFilter(p, userID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListOrders(ctx, f)
}

func (s *FulfillmentService) History(ctx context.Context, p domain.Principal, userID *int64) ([]domain.HistoryRecord, error) {
	f, err := scopeFilter(p, userID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListHistory(ctx, f)
}

func scopeFilter(p domain.Principal, userID *int64) (domain.OrderFilter, error) {
	switch p.Role {
	case domain.RoleAdmin:
		return domain.OrderFilter{UserID: userID}, nil
	case domain.RoleCustomer:
		id := p.ID
		return domain.OrderFilter{UserID: &id}, nil
	default:
		return domain.OrderFilter{}, domain.ErrPermission
	}
}
