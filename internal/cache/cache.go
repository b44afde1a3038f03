package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// SessionCache stores sessions, and with them the customer's cart.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Set(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
