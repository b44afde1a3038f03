package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CatalogStore interface {
	ItemReader
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error
	ListItems(ctx context.Context, categoryID int64) ([]domain.Item, error)
	ListOutOfStock(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, it domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	AddStock(ctx context.Context, id int64, quantity decimal.Decimal) (decimal.Decimal, error)
}

// CatalogService is the record management around items and categories.
// Writes require an admin principal.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

type ItemInput struct {
	Name         string
	PricePerUnit decimal.Decimal
	Stock        decimal.Decimal
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin only", domain.ErrPermission)
	}
	return nil
}

func cleanName(name, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Invalid("%s name is required", what)
	}
	return name, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, p domain.Principal, name string) (*domain.Category, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name, err := cleanName(name, "category")
	if err != nil {
		return nil, err
	}
	return s.store.CreateCategory(ctx, name)
}

func (s *CatalogService) RenameCategory(ctx context.Context, p domain.Principal, id int64, name string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	name, err := cleanName(name, "category")
	if err != nil {
		return err
	}
	return s.store.RenameCategory(ctx, id, name)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, p domain.Principal, id int64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}

func (s *CatalogService) Items(ctx context.Context, categoryID int64) ([]domain.Item, error) {
	return s.store.ListItems(ctx, categoryID)
}

func (s *CatalogService) Item(ctx context.Context, id int64) (*domain.Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *CatalogService) CreateItem(ctx context.Context, p domain.Principal, categoryID int64, in ItemInput) (*domain.Item, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name, err := cleanName(in.Name, "item")
	if err != nil {
		return nil, err
	}
	if err := domain.CheckPrice(in.PricePerUnit); err != nil {
		return nil, err
	}
	if err := domain.CheckStock(in.Stock); err != nil {
		return nil, err
	}
	return s.store.CreateItem(ctx, domain.Item{
		Name:         name,
		CategoryID:   categoryID,
		PricePerUnit: in.PricePerUnit,
		Stock:        in.Stock,
	})
}

// UpdateItem changes name and price only.
func (s *CatalogService) UpdateItem(ctx context.Context, p domain.Principal, id int64, in ItemInput) (*domain.Item, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name, err := cleanName(in.Name, "item")
	if err != nil {
		return nil, err
	}
	if err := domain.CheckPrice(in.PricePerUnit); err != nil {
		return nil, err
	}
	return s.store.UpdateItem(ctx, domain.Item{ID: id, Name: name, PricePerUnit: in.PricePerUnit})
}

func (s *CatalogService) DeleteItem(ctx context.Context, p domain.Principal, id int64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.store.DeleteItem(ctx, id)
}

func (s *CatalogService) AddStock(ctx context.Context, p domain.Principal, id int64, quantity decimal.Decimal) (decimal.Decimal, error) {
	if err := requireAdmin(p); err != nil {
		return decimal.Zero, err
	}
	if err := domain.CheckQuantity(quantity); err != nil {
		return decimal.Zero, err
	}
	return s.store.AddStock(ctx, id, quantity)
}

func (s *CatalogService) OutOfStock(ctx context.Context, p domain.Principal) ([]domain.Item, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.ListOutOfStock(ctx)
}
