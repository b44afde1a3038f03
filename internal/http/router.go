package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger             *zap.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Ready is consulted by GET /health; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	// Authenticated by signature, not by session.
	r.Post("/stripe-webhook", h.PaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(h.sessions.Middleware)

		r.Post("/sign_in", h.AdminSignIn)
		r.Post("/user_signin", h.UserSignIn)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			r.Post("/add_user", h.AddUser)

			r.Get("/category", h.ListCategories)
			r.Post("/category", h.CreateCategory)
			r.Post("/category/{category_id}/edit", h.RenameCategory)
			r.Post("/category/{category_id}/delete", h.DeleteCategory)
			r.Get("/category/{category_id}/items", h.ListItems)
			r.Post("/category/{category_id}/items", h.CreateItem)

			r.Post("/items/{item_id}/edit", h.UpdateItem)
			r.Post("/items/{item_id}/delete", h.DeleteItem)
			r.Post("/items/{item_id}/add_stock", h.AddStock)
			r.Get("/out_of_stock", h.OutOfStock)

			r.Get("/orders", h.ListOrders)
			r.Get("/history", h.ListHistory)
			r.Post("/orders/{order_id}/collected", h.CollectOrder)
			r.Post("/orders/{order_id}/delete", h.CancelOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleCustomer))

			r.Get("/u_category", h.ListCategories)
			r.Get("/u_category/{category_id}/u_items_list", h.ListItems)

			r.Get("/cart", h.GetCart)
			r.Post("/pre_book/{item_id}", h.PreBook)
			r.Post("/remove_from_cart/{item_id}", h.RemoveFromCart)
			r.Post("/create-checkout-session", h.CreateCheckoutSession)

			r.Get("/user_orders", h.UserOrders)
			r.Get("/user_history", h.UserHistory)
			r.Post("/orders/{order_id}/cancel", h.CancelOrder)
		})
	})

	return r
}
