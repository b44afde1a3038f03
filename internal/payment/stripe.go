package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// BackendURL overrides the API endpoint. Empty means api.stripe.com.
	BackendURL string
	HTTPClient *http.Client
}

// StripeGateway implements Gateway on Stripe Checkout.
type StripeGateway struct {
	sessions      session.Client
	webhookSecret string
	currency      string
	breaker       *circuitbreaker.Breaker[*stripe.CheckoutSession]
}

func NewStripeGateway(cfg StripeConfig, log *zap.Logger) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(1),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}
	if cfg.HTTPClient != nil {
		backendCfg.HTTPClient = cfg.HTTPClient
	} else {
		backendCfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	bs := circuitbreaker.DefaultSettings("stripe-checkout")
	bs.IsSuccessful = func(err error) bool { return err == nil || isClientError(err) }

	return &StripeGateway{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		breaker:       circuitbreaker.New[*stripe.CheckoutSession](bs, log),
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %w", domain.ErrGateway, err)
	}
	return &Session{ID: cs.ID, URL: cs.URL}, nil
}

func (g *StripeGateway) VerifyNotification(payload []byte, signatureHeader string) (*Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
	}

	n := &Notification{EventID: event.ID, Type: string(event.Type)}
	if n.Type != EventCheckoutCompleted && n.Type != EventCheckoutAsyncPaymentSucceeded {
		return n, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", domain.ErrInvalidPayload, event.ID)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %w", domain.ErrInvalidPayload, err)
	}
	if cs.ID == "" {
		return nil, fmt.Errorf("%w: event %s has no checkout session id", domain.ErrInvalidPayload, event.ID)
	}
	n.CheckoutSessionID = cs.ID
	n.Metadata = cs.Metadata
	n.Paid = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return n, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// isClientError reports request errors the processor rejected on their merits;
// they say nothing about its availability.
func isClientError(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != http.StatusTooManyRequests
}
