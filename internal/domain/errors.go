package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermission       = errors.New("permission denied")
	ErrGateway          = errors.New("payment gateway error")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrTransaction      = errors.New("transaction failed")
)

var (
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrOutOfStock         = fmt.Errorf("%w: out of stock", ErrValidation)
	ErrItemNotFound       = fmt.Errorf("item %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category %w", ErrNotFound)
	ErrOrderNotFound      = fmt.Errorf("order %w", ErrNotFound)
	ErrCartLineNotFound   = fmt.Errorf("cart line %w", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrPermission)
)

// Invalid builds a validation error with a user-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
