package http

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, p domain.Principal, name string) (*domain.Category, error)
	RenameCategory(ctx context.Context, p domain.Principal, id int64, name string) error
	DeleteCategory(ctx context.Context, p domain.Principal, id int64) error
	Items(ctx context.Context, categoryID int64) ([]domain.Item, error)
	CreateItem(ctx context.Context, p domain.Principal, categoryID int64, in service.ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, p domain.Principal, id int64, in service.ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, p domain.Principal, id int64) error
	AddStock(ctx context.Context, p domain.Principal, id int64, quantity decimal.Decimal) (decimal.Decimal, error)
	OutOfStock(ctx context.Context, p domain.Principal) ([]domain.Item, error)
}

type Carts interface {
	PreBook(ctx context.Context, p domain.Principal, cart *domain.Cart, itemID int64, quantity decimal.Decimal) (*domain.CartLine, error)
	Remove(cart *domain.Cart, itemID int64) error
}

type Fulfillment interface {
	Collect(ctx context.Context, p domain.Principal, orderID int64) (*domain.HistoryRecord, error)
	Cancel(ctx context.Context, p domain.Principal, orderID int64) (*domain.Order, error)
	Orders(ctx context.Context, p domain.Principal, userID *int64) ([]domain.Order, error)
	History(ctx context.Context, p domain.Principal, userID *int64) ([]domain.HistoryRecord, error)
}

type Accounts interface {
	Authenticate(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error)
	AddUser(ctx context.Context, p domain.Principal, username, password string) (*domain.Principal, error)
}

// Handler serves the storefront's HTTP surface.
type Handler struct {
	catalog     Catalog
	carts       Carts
	checkout    service.CheckoutService
	fulfillment Fulfillment
	accounts    Accounts
	sessions    *SessionManager
}

func NewHandler(catalog Catalog, carts Carts, checkout service.CheckoutService, fulfillment Fulfillment, accounts Accounts, sessions *SessionManager) *Handler {
	return &Handler{
		catalog:     catalog,
		carts:       carts,
		checkout:    checkout,
		fulfillment: fulfillment,
		accounts:    accounts,
		sessions:    sessions,
	}
}

// caller returns the logged-in principal. Routes that use it sit behind RequireRole.
func caller(ctx context.Context) domain.Principal {
	if p := principalFrom(ctx); p != nil {
		return *p
	}
	return domain.Principal{}
}
