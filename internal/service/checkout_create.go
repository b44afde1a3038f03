package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// CreateCheckout turns the cart into a hosted checkout session and returns where
// to send the customer. No stock is held: settlement re-checks it when payment lands.
func (s *CheckoutServiceImpl) CreateCheckout(ctx context.Context, p domain.Principal, cart *domain.Cart) (*CheckoutRedirect, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", p.ID))

	log := logger.FromContext(ctx).With(zap.String("component", "checkout_service"), zap.Int64("user_id", p.ID))

	if p.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers can check out", domain.ErrPermission)
	}
	if cart.IsEmpty() {
		s.metrics.CheckoutSessions.WithLabelValues("empty_cart").Inc()
		return nil, domain.ErrEmptyCart
	}

	lines := cart.Sorted()
	if len(lines) > payment.MaxMetadataLines {
		return nil, domain.Invalid("a checkout can hold at most %d different items", payment.MaxMetadataLines)
	}

	var (
		lineItems []payment.LineItem
		toSettle  []domain.SettlementLine
		skipped   []int64
	)
	for _, l := range lines {
		it, err := s.lookupItem(ctx, l.ItemID)
		if errors.Is(err, domain.ErrItemNotFound) {
			log.Warn("checkout_item_missing", zap.Int64("item_id", l.ItemID))
			skipped = append(skipped, l.ItemID)
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "item lookup failed")
			return nil, fmt.Errorf("load item %d: %w", l.ItemID, err)
		}
		if !it.PricePerUnit.Equal(l.UnitPrice) {
			log.Info("checkout_price_changed",
				zap.Int64("item_id", l.ItemID),
				zap.String("quoted", l.UnitPrice.String()),
				zap.String("current", it.PricePerUnit.String()))
		}
		li := payment.LineItemFor(it.Name, it.PricePerUnit, l.Quantity)
		if li.UnitAmount == 0 && it.PricePerUnit.IsPositive() {
			return nil, domain.Invalid("%s of %s is too little to charge for", l.Quantity.String(), it.Name)
		}
		lineItems = append(lineItems, li)
		toSettle = append(toSettle, domain.SettlementLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	if len(lineItems) == 0 {
		s.metrics.CheckoutSessions.WithLabelValues("items_missing").Inc()
		return nil, fmt.Errorf("none of the %d cart items is sold any more: %w", len(skipped), domain.ErrItemNotFound)
	}

	sess, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		LineItems:       lineItems,
		SuccessURL:      s.urls.Success,
		CancelURL:       s.urls.Cancel,
		ClientReference: strconv.FormatInt(p.ID, 10),
		Metadata:        payment.EncodeMetadata(p.ID, toSettle),
	})
	if err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("gateway_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway error")
		log.Error("checkout_session_failed", zap.Error(err))
		return nil, err
	}

	s.metrics.CheckoutSessions.WithLabelValues("created").Inc()
	span.SetAttributes(attribute.String("checkout.session_id", sess.ID))
	log.Info("checkout_session_created",
		zap.String("checkout_session_id", sess.ID),
		zap.Int("lines", len(lineItems)),
		zap.Int("skipped", len(skipped)))

	return &CheckoutRedirect{SessionID: sess.ID, URL: sess.URL, Skipped: skipped}, nil
}

// lookupItem collapses concurrent reads of the same item.
func (s *CheckoutServiceImpl) lookupItem(ctx context.Context, id int64) (*domain.Item, error) {
	v, err, _ := s.lookups.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return s.items.GetItem(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	it := *v.(*domain.Item)
	return &it, nil
}
