package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderDTO struct {
	ID                int64           `json:"order_id"`
	UserID            int64           `json:"u_id"`
	ItemID            int64           `json:"item_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type HistoryDTO struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"u_id"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	OrderedAt   time.Time       `json:"ordered_at"`
	CollectedAt time.Time       `json:"collected_at"`
}

type UserOrdersDTO struct {
	Orders  []OrderDTO `json:"orders"`
	Cart    CartDTO    `json:"cart"`
	Flashes []string   `json:"flashes"`
}

func toOrderDTO(o domain.Order) OrderDTO {
	return OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		ItemID:            o.ItemID,
		Quantity:          o.Quantity,
		Price:             o.Price,
		CheckoutSessionID: o.CheckoutSessionID,
		CreatedAt:         o.CreatedAt,
	}
}

func toOrderDTOs(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toHistoryDTOs(recs []domain.HistoryRecord) []HistoryDTO {
	out := make([]HistoryDTO, 0, len(recs))
	for _, h := range recs {
		out = append(out, HistoryDTO{
			ID:          h.ID,
			OrderID:     h.OrderID,
			UserID:      h.UserID,
			ItemID:      h.ItemID,
			ItemName:    h.ItemName,
			Quantity:    h.Quantity,
			Price:       h.Price,
			OrderedAt:   h.OrderedAt,
			CollectedAt: h.CollectedAt,
		})
	}
	return out
}

// userFilter reads the optional u_id query parameter.
func userFilter(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("u_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_u_id", "u_id must be a positive integer")
		return nil, false
	}
	return &id, true
}

// GET /orders?u_id=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userFilter(w, r)
	if !ok {
		return
	}
	orders, err := h.fulfillment.Orders(r.Context(), caller(r.Context()), uid)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

// GET /history?u_id=
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userFilter(w, r)
	if !ok {
		return
	}
	recs, err := h.fulfillment.History(r.Context(), caller(r.Context()), uid)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toHistoryDTOs(recs))
}

// GET /user_orders
// The processor's success redirect lands here with ?session_id=; when it matches
// the checkout started from this session the cart has been paid for and is cleared.
func (h *Handler) UserOrders(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if id := r.URL.Query().Get("session_id"); id != "" && id == sess.CheckoutSessionID {
		sess.Cart.Clear()
		sess.CheckoutSessionID = ""
		sess.Flash("Thank you! Your payment is being processed.")
		logger.FromContext(r.Context()).Info("checkout_returned", zap.String("checkout_session_id", id))
	}

	orders, err := h.fulfillment.Orders(r.Context(), caller(r.Context()), nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	flashes := sess.PopFlashes()
	if flashes == nil {
		flashes = []string{}
	}
	respondJSON(w, http.StatusOK, UserOrdersDTO{
		Orders:  toOrderDTOs(orders),
		Cart:    toCartDTO(sess.Cart),
		Flashes: flashes,
	})
}

// GET /user_history
func (h *Handler) UserHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.fulfillment.History(r.Context(), caller(r.Context()), nil)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toHistoryDTOs(recs))
}

// POST /orders/{order_id}/collected
func (h *Handler) CollectOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	rec, err := h.fulfillment.Collect(r.Context(), caller(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toHistoryDTOs([]domain.HistoryRecord{*rec})[0])
}

// POST /orders/{order_id}/delete and POST /orders/{order_id}/cancel
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	o, err := h.fulfillment.Cancel(r.Context(), caller(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(*o))
}
