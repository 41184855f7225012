package engine

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOutOfStock       = errors.New("out of stock")
	ErrStockUnavailable = errors.New("stock unavailable")
	ErrProductNotInCart = errors.New("product not in cart")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrPersistence      = errors.New("persistence failure")
)
