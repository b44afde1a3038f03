package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ItemDTO struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Stock        decimal.Decimal `json:"stock"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type NameRequestDTO struct {
	Name string `json:"name"`
}

type ItemRequestDTO struct {
	Name         string          `json:"name"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Stock        decimal.Decimal `json:"stock"`
}

type QuantityRequestDTO struct {
	Quantity json.Number `json:"quantity"`
}

func toCategoryDTOs(cs []domain.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return out
}

func toItemDTO(it domain.Item) ItemDTO {
	return ItemDTO{
		ID:           it.ID,
		Name:         it.Name,
		CategoryID:   it.CategoryID,
		PricePerUnit: it.PricePerUnit,
		Stock:        it.Stock,
		UpdatedAt:    it.UpdatedAt,
	}
}

func toItemDTOs(items []domain.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	return out
}

// GET /category and GET /u_category
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoryDTOs(cs))
}

// POST /category
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), caller(r.Context()), req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, CategoryDTO{ID: c.ID, Name: c.Name})
}

// POST /category/{category_id}/edit
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category_id")
	if !ok {
		return
	}
	var req NameRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.catalog.RenameCategory(r.Context(), caller(r.Context()), id, req.Name); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /category/{category_id}/delete
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), caller(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /category/{category_id}/items and GET /u_category/{category_id}/u_items_list
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "category_id")
	if !ok {
		return
	}
	items, err := h.catalog.Items(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemDTOs(items))
}

// POST /category/{category_id}/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(w, r, "category_id")
	if !ok {
		return
	}
	var req ItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.catalog.CreateItem(r.Context(), caller(r.Context()), categoryID, service.ItemInput{
		Name:         req.Name,
		PricePerUnit: req.PricePerUnit,
		Stock:        req.Stock,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toItemDTO(*it))
}

// POST /items/{item_id}/edit
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var req ItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.catalog.UpdateItem(r.Context(), caller(r.Context()), id, service.ItemInput{
		Name:         req.Name,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemDTO(*it))
}

// POST /items/{item_id}/delete
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteItem(r.Context(), caller(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /items/{item_id}/add_stock
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item_id")
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
	stock, err := h.catalog.AddStock(r.Context(), caller(r.Context()), id, q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"stock": stock})
}

// GET /out_of_stock
func (h *Handler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.OutOfStock(r.Context(), caller(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemDTOs(items))
}
