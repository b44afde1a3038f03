package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// CartService edits a session's cart. The cart is passed in by the caller and
// nothing here is stored; stock is not touched.
type CartService struct {
	items ItemReader
}

func NewCartService(items ItemReader) *CartService {
	return &CartService{items: items}
}

// PreBook puts itemID into the cart at the current price, replacing any earlier line.
func (s *CartService) PreBook(ctx context.Context, p domain.Principal, cart *domain.Cart, itemID int64, quantity decimal.Decimal) (*domain.CartLine, error) {
	if p.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers have a cart", domain.ErrPermission)
	}
	if err := domain.CheckQuantity(quantity); err != nil {
		return nil, err
	}

	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.InStock() {
		return nil, domain.ErrOutOfStock
	}
	if !it.Covers(quantity) {
		return nil, domain.Invalid("only %s of %s left", it.Stock.String(), it.Name)
	}

	line := domain.CartLine{
		ItemID:    it.ID,
		Name:      it.Name,
		Quantity:  quantity,
		UnitPrice: it.PricePerUnit,
	}
	cart.Put(line)
	return &line, nil
}

func (s *CartService) Remove(cart *domain.Cart, itemID int64) error {
	if !cart.Remove(itemID) {
		return domain.ErrCartLineNotFound
	}
	return nil
}
