package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, username string, passwordHash []byte, role domain.Role) (*domain.Principal, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

type AccountService struct {
	store AccountStore
	cost  int
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store, cost: bcrypt.DefaultCost}
}

// Authenticate checks a username and password against an account of the given role.
func (s *AccountService) Authenticate(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error) {
	a, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if a.Role != role {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	p := a.Principal
	return &p, nil
}

// AddUser creates a customer account. Admin only.
func (s *AccountService) AddUser(ctx context.Context, p domain.Principal, username, password string) (*domain.Principal, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.create(ctx, username, password, domain.RoleCustomer)
}

// EnsureAdmin creates the bootstrap admin account unless the username exists.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) error {
	a, err := s.store.GetAccountByUsername(ctx, username)
	if err == nil {
		if a.Role != domain.RoleAdmin {
			return fmt.Errorf("account %q exists and is not an admin", username)
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.create(ctx, username, password, domain.RoleAdmin); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("admin_account_created", zap.String("username", username))
	return nil
}

func (s *AccountService) create(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.Invalid("username and password are required")
	}
	if len(password) > 72 {
		return nil, domain.Invalid("password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateAccount(ctx, username, hash, role)
}
