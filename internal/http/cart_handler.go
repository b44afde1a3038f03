package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CartLineDTO struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	Lines []CartLineDTO   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func toCartDTO(c *domain.Cart) CartDTO {
	lines := c.Sorted()
	dto := CartDTO{Lines: make([]CartLineDTO, 0, len(lines)), Total: c.Total()}
	for _, l := range lines {
		dto.Lines = append(dto.Lines, CartLineDTO{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return dto
}

// GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartDTO(sessionFrom(r.Context()).Cart))
}

// POST /pre_book/{item_id}
func (h *Handler) PreBook(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var req QuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := parseQuantity(req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	line, err := h.carts.PreBook(r.Context(), caller(r.Context()), sess.Cart, itemID, q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sess.Flash("'" + line.Name + "' added to your cart!")
	respondJSON(w, http.StatusCreated, toCartDTO(sess.Cart))
}

// POST /remove_from_cart/{item_id}
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())
	if err := h.carts.Remove(sess.Cart, itemID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(sess.Cart))
}
