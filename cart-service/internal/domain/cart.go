package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidCart = errors.New("invalid cart")

// Product is a catalog entry as held in the cart. Amount is the quantity in
// the cart, not the stock level.
type Product struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Amount int             `json:"amount"`
}

// Stock is the remote maximum purchasable quantity for a product.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// Cart is ordered by insertion and unique by product ID.
type Cart []Product

// Index returns the position of productID in the cart, or -1.
func (c Cart) Index(productID int64) int {
	for i := range c {
		if c[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// TotalItems sums the amounts of all lines.
func (c Cart) TotalItems() int {
	total := 0
	for _, p := range c {
		total += p.Amount
	}
	return total
}

// Validate checks the structural part of the stock invariant: every amount
// is positive and no product appears twice. The upper bound depends on
// remote stock and is enforced by the engine at mutation time.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, p := range c {
		if p.Amount <= 0 {
			return fmt.Errorf("%w: product %d has amount %d", ErrInvalidCart, p.ID, p.Amount)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: product %d appears more than once", ErrInvalidCart, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
