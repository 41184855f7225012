package domain

// Stock is the amount of a product currently available for carts.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}
