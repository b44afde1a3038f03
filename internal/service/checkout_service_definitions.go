package service

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

type ItemReader interface {
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
}

type Settler interface {
	SettleCheckout(ctx context.Context, s domain.Settlement) (*domain.SettlementResult, error)
}

type CheckoutService interface {
	CreateCheckout(ctx context.Context, p domain.Principal, cart *domain.Cart) (*CheckoutRedirect, error)
	HandleCompletionNotification(ctx context.Context, payload []byte, signatureHeader string) (*SettlementOutcome, error)
}

// RedirectURLs are where the hosted checkout sends the customer back to.
type RedirectURLs struct {
	Success string
	Cancel  string
}

type CheckoutRedirect struct {
	SessionID string
	URL       string
	// Skipped lists cart items that no longer exist and were left out.
	Skipped []int64
}

// SettlementOutcome describes an accepted notification. Ignored is set when
// the event carried nothing to settle.
type SettlementOutcome struct {
	EventID string
	Ignored bool
	Result  *domain.SettlementResult
}

type CheckoutServiceImpl struct {
	items   ItemReader
	settler Settler
	gateway payment.Gateway
	urls    RedirectURLs
	metrics *metrics.Metrics
	lookups singleflight.Group
	tracer  trace.Tracer
}

func NewCheckoutService(items ItemReader, settler Settler, gateway payment.Gateway, urls RedirectURLs, m *metrics.Metrics) *CheckoutServiceImpl {
	if m == nil {
		m = metrics.NewNop()
	}
	return &CheckoutServiceImpl{
		items:   items,
		settler: settler,
		gateway: gateway,
		urls:    urls,
		metrics: m,
		tracer:  otel.Tracer("storefront/checkout"),
	}
}
