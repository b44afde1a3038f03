package payment

import "context"

const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// LineItem is one priced line of a hosted checkout, in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	LineItems       []LineItem
	SuccessURL      string
	CancelURL       string
	ClientReference string
	Metadata        map[string]string
}

// Session is a checkout session issued by the processor.
type Session struct {
	ID  string
	URL string
}

// Notification is a verified inbound event from the processor.
type Notification struct {
	EventID           string
	Type              string
	CheckoutSessionID string
	Paid              bool
	Metadata          map[string]string
}

// Completed reports whether the notification confirms a paid checkout.
func (n *Notification) Completed() bool {
	switch n.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSucceeded:
		return n.Paid
	default:
		return false
	}
}

// Gateway is the boundary to the payment processor. Nothing may act on
// notification content before VerifyNotification succeeds.
type Gateway interface {
	// CreateSession fails with domain.ErrGateway.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// VerifyNotification fails with domain.ErrInvalidPayload or domain.ErrInvalidSignature.
	VerifyNotification(payload []byte, signatureHeader string) (*Notification, error)
}
