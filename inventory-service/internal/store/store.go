package store

import (
	"errors"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
)

// Common errors returned by the store
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidAmount   = errors.New("stock amount must not be negative")
)

// InventoryStore defines the interface for inventory storage operations
type InventoryStore interface {
	// GetStock returns the stock record for one product
	GetStock(productID int64) (domain.Stock, error)

	// ListStock returns every stock record ordered by product id
	ListStock() ([]domain.Stock, error)

	// SetStock sets the stock level for a product, creating it if needed
	SetStock(productID int64, amount int) error
}
