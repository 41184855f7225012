package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/inventory"
	"github.com/fjod/go_cart/cart-service/internal/repository"
)

type mockStore struct {
	m       sync.RWMutex
	cart    domain.Cart
	saved   bool
	loadErr error
	saveErr error
	saves   int
}

func (m *mockStore) Load(context.Context) (domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if !m.saved {
		return nil, repository.ErrCartNotFound
	}
	return m.cart.Clone(), nil
}

func (m *mockStore) Save(_ context.Context, cart domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cart = cart.Clone()
	m.saved = true
	m.saves++
	return nil
}

func (m *mockStore) setSaveErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.saveErr = err
}

func (m *mockStore) stored() domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart.Clone()
}

func (m *mockStore) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

type mockStock struct {
	m       sync.RWMutex
	stocks  map[int64]int
	err     error
	listErr error
	calls   int
}

func newMockStock(levels map[int64]int) *mockStock {
	return &mockStock{stocks: levels}
}

func (m *mockStock) GetStock(_ context.Context, productID int64) (domain.Stock, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return domain.Stock{}, m.err
	}
	amount, ok := m.stocks[productID]
	if !ok {
		return domain.Stock{}, inventory.ErrNotFound
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (m *mockStock) ListStock(context.Context) ([]domain.Stock, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Stock, 0, len(m.stocks))
	for id, amount := range m.stocks {
		out = append(out, domain.Stock{ID: id, Amount: amount})
	}
	return out, nil
}

func (m *mockStock) set(productID int64, amount int) {
	m.m.Lock()
	defer m.m.Unlock()
	m.stocks[productID] = amount
}

func (m *mockStock) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.calls
}

type mockCatalog struct {
	m     sync.RWMutex
	err   error
	calls int
}

func (m *mockCatalog) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return domain.Product{}, m.err
	}
	if productID >= 1000 {
		return domain.Product{}, inventory.ErrNotFound
	}
	return domain.Product{ID: productID, Title: "product", Image: "img"}, nil
}

func (m *mockCatalog) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.calls
}

type recordingNotifier struct {
	m     sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.m.Lock()
	defer r.m.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) messages() []string {
	r.m.Lock()
	defer r.m.Unlock()
	out := make([]string, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Message
	}
	return out
}

var errNetwork = errors.New("connection refused")
