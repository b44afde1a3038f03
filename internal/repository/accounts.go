package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	queryCreateAccount = `INSERT INTO accounts (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id`
	queryGetAccount    = `SELECT id, username, password_hash, role FROM accounts WHERE username = $1`
)

func (r *Repository) CreateAccount(ctx context.Context, username string, passwordHash []byte, role domain.Role) (*domain.Principal, error) {
	p := domain.Principal{Username: username, Role: role}
	err := r.db.QueryRowContext(ctx, queryCreateAccount, username, passwordHash, string(role)).Scan(&p.ID)
	if pqCode(err) == pqUniqueViolation {
		return nil, domain.Invalid("username %q is taken", username)
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &p, nil
}

func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	err := r.db.QueryRowContext(ctx, queryGetAccount, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", username, err)
	}
	a.Role = domain.Role(role)
	return &a, nil
}
