package store

import (
	"sort"
	"sync"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
)

// MemoryStore implements InventoryStore with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[int64]int // productID -> amount
}

// NewMemoryStore creates a new in-memory inventory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stocks: make(map[int64]int),
	}
}

func (s *MemoryStore) GetStock(productID int64) (domain.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, exists := s.stocks[productID]
	if !exists {
		return domain.Stock{}, ErrProductNotFound
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (s *MemoryStore) ListStock() ([]domain.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Stock, 0, len(s.stocks))
	for id, amount := range s.stocks {
		result = append(result, domain.Stock{ID: id, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SetStock sets the stock level for a product
func (s *MemoryStore) SetStock(productID int64, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stocks[productID] = amount
	return nil
}
