package repository

import (
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/cart-service/internal/domain"
)

// The cart is stored as a JSON array of products in every backend.

func encodeCart(cart domain.Cart) ([]byte, error) {
	if cart == nil {
		cart = domain.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	if err := cart.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	if cart == nil {
		cart = domain.Cart{}
	}
	return cart, nil
}
