package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// HandleCompletionNotification verifies a processor notification and settles the
// checkout it confirms. Errors are domain.ErrInvalidPayload or domain.ErrInvalidSignature
// (reject, nothing changed) or domain.ErrTransaction (retry expected). Every other
// outcome, including skipped lines and replays, is an accepted notification.
func (s *CheckoutServiceImpl) HandleCompletionNotification(ctx context.Context, payload []byte, signatureHeader string) (*SettlementOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.settle")
	defer span.End()

	log := logger.FromContext(ctx).With(zap.String("component", "checkout_service"))

	n, err := s.gateway.VerifyNotification(payload, signatureHeader)
	if err != nil {
		result := "invalid_payload"
		if errors.Is(err, domain.ErrInvalidSignature) {
			result = "invalid_signature"
		}
		s.metrics.WebhookNotifications.WithLabelValues(result).Inc()
		log.Warn("webhook_rejected", zap.String("reason", result), zap.Error(err))
		return nil, err
	}

	log = log.With(zap.String("event_id", n.EventID), zap.String("event_type", n.Type))
	span.SetAttributes(attribute.String("event.id", n.EventID), attribute.String("event.type", n.Type))

	if !n.Completed() {
		s.metrics.WebhookNotifications.WithLabelValues("ignored").Inc()
		log.Info("webhook_event_ignored")
		return &SettlementOutcome{EventID: n.EventID, Ignored: true}, nil
	}

	log = log.With(zap.String("checkout_session_id", n.CheckoutSessionID))
	md, err := payment.DecodeMetadata(n.Metadata)
	if err != nil {
		s.metrics.WebhookNotifications.WithLabelValues("bad_metadata").Inc()
		log.Error("settlement_metadata_invalid", zap.Error(err))
		return &SettlementOutcome{EventID: n.EventID, Ignored: true}, nil
	}
	for _, problem := range md.Problems {
		s.metrics.SettlementLines.WithLabelValues("malformed").Inc()
		log.Warn("settlement_metadata_line_skipped", zap.String("problem", problem))
	}

	start := time.Now()
	res, err := s.settler.SettleCheckout(ctx, domain.Settlement{
		CheckoutSessionID: n.CheckoutSessionID,
		EventID:           n.EventID,
		UserID:            md.UserID,
		Lines:             md.Lines,
	})
	s.metrics.ObserveSettlement(start)
	if err != nil {
		if !errors.Is(err, domain.ErrTransaction) {
			err = fmt.Errorf("%w: %w", domain.ErrTransaction, err)
		}
		s.metrics.WebhookNotifications.WithLabelValues("transaction_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "settlement failed")
		log.Error("settlement_failed", zap.Error(err))
		return nil, err
	}

	s.report(log, md.UserID, res)
	return &SettlementOutcome{EventID: n.EventID, Result: res}, nil
}

func (s *CheckoutServiceImpl) report(log *zap.Logger, userID int64, res *domain.SettlementResult) {
	switch {
	case res.Duplicate:
		s.metrics.WebhookNotifications.WithLabelValues("duplicate").Inc()
		log.Info("settlement_replayed")
		return
	case res.UnknownUser:
		s.metrics.WebhookNotifications.WithLabelValues("unknown_user").Inc()
		log.Error("settlement_unknown_user", zap.Int64("user_id", userID))
		return
	}

	s.metrics.WebhookNotifications.WithLabelValues("settled").Inc()
	for _, o := range res.Orders {
		s.metrics.SettlementLines.WithLabelValues("settled").Inc()
		log.Info("order_settled",
			zap.Int64("order_id", o.ID),
			zap.Int64("user_id", o.UserID),
			zap.Int64("item_id", o.ItemID),
			zap.String("quantity", o.Quantity.String()),
			zap.String("price", o.Price.String()))
	}
	for _, sf := range res.Shortfalls {
		s.metrics.SettlementLines.WithLabelValues(string(sf.Reason)).Inc()
		log.Warn("settlement_line_skipped",
			zap.Int64("item_id", sf.ItemID),
			zap.String("reason", string(sf.Reason)),
			zap.String("requested", sf.Requested.String()),
			zap.String("available", sf.Available.String()))
	}
}
