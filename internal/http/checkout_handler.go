package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.uber.org/zap"
)

const (
	orderListPath = "/user_orders"

	// Processor notifications are small; anything bigger is not one.
	maxWebhookBody = 64 << 10
)

// POST /create-checkout-session
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	log := logger.FromContext(r.Context())

	res, err := h.checkout.CreateCheckout(r.Context(), caller(r.Context()), sess.Cart)
	if err != nil {
		sess.Flash(checkoutFlash(err))
		if status, _ := errorStatus(err); status >= http.StatusInternalServerError {
			log.Error("checkout_failed", zap.Error(err))
		}
		http.Redirect(w, r, orderListPath, http.StatusSeeOther)
		return
	}

	sess.CheckoutSessionID = res.SessionID
	if len(res.Skipped) > 0 {
		sess.Flash(fmt.Sprintf("%d item(s) in your cart are no longer sold and were left out.", len(res.Skipped)))
	}
	http.Redirect(w, r, res.URL, http.StatusSeeOther)
}

func checkoutFlash(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, domain.ErrItemNotFound):
		return "The items in your cart are no longer sold."
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrGateway):
		return "Payment is unavailable right now, please try again later."
	default:
		return "Something went wrong, please try again."
	}
}

// POST /stripe-webhook
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondText(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	_, err = h.checkout.HandleCompletionNotification(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		respondText(w, http.StatusOK, "Success")
	case errors.Is(err, domain.ErrInvalidSignature):
		respondText(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, domain.ErrInvalidPayload):
		respondText(w, http.StatusBadRequest, "Invalid payload")
	default:
		respondText(w, http.StatusInternalServerError, "Database error")
	}
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
