package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/cart-service/internal/domain"
)

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrMalformedCart = errors.New("malformed cart data")
)

// CartStore persists the single cart of this application under a fixed
// storage key. Load returns ErrCartNotFound when nothing was saved yet and
// ErrMalformedCart when the stored payload cannot be used.
type CartStore interface {
	Load(ctx context.Context) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
}
