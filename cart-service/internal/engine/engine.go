package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/inventory"
	"github.com/fjod/go_cart/cart-service/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StockReader is the read side of the inventory service.
type StockReader interface {
	GetStock(ctx context.Context, productID int64) (domain.Stock, error)
	ListStock(ctx context.Context) ([]domain.Stock, error)
}

// ProductReader is the read side of the catalog.
type ProductReader interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

type UpdateProductAmount struct {
	ProductID int64
	Amount    int
}

// Engine owns the cart. Every mutation reads what it needs from the remote
// services first and only then commits the new cart to the store and to
// memory as a pair.
//
// Operations are not serialized: two concurrent operations both start from
// the cart as it was when they were called and the last commit wins.
// Callers that need strict ordering must serialize calls themselves.
type Engine struct {
	store    repository.CartStore
	stock    StockReader
	catalog  ProductReader
	notifier Notifier
	log      *slog.Logger
	tracer   trace.Tracer

	// commitMu keeps the store write and the memory swap together so the
	// two never hold different carts.
	commitMu sync.Mutex

	mu      sync.RWMutex
	cart    domain.Cart
	subs    []subscription
	nextSub uint64
}

type subscription struct {
	id uint64
	fn func(domain.Cart)
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New hydrates the engine from store. A missing or unusable stored cart
// starts the engine with an empty cart; any other store error is returned.
func New(ctx context.Context, store repository.CartStore, stock StockReader, catalog ProductReader, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    store,
		stock:    stock,
		catalog:  catalog,
		notifier: nopNotifier{},
		log:      slog.Default(),
		tracer:   otel.Tracer("github.com/fjod/go_cart/cart-service/internal/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	cart, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrCartNotFound):
		cart = domain.Cart{}
	case errors.Is(err, repository.ErrMalformedCart):
		e.log.WarnContext(ctx, "stored cart is unusable, starting empty", "error", err)
		cart = domain.Cart{}
	default:
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	e.cart = cart
	e.log.InfoContext(ctx, "cart loaded", "products", len(cart), "items", cart.TotalItems())
	return e, nil
}

// Cart returns a copy of the current cart.
func (e *Engine) Cart() domain.Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.Clone()
}

// Subscribe registers fn to receive a copy of the cart after every commit.
// fn runs on the committing goroutine and must not block. The returned func
// removes the subscription.
func (e *Engine) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// AddProduct puts one unit of productID in the cart. A product already in
// the cart goes through UpdateProductAmount with its amount plus one.
func (e *Engine) AddProduct(ctx context.Context, productID int64) error {
	ctx, span := e.startSpan(ctx, "engine.AddProduct", productID)
	defer span.End()

	err := e.addProduct(ctx, productID)
	endSpan(span, err)
	return err
}

func (e *Engine) addProduct(ctx context.Context, productID int64) error {
	snapshot := e.Cart()
	if i := snapshot.Index(productID); i >= 0 {
		return e.updateProductAmount(ctx, productID, snapshot[i].Amount+1)
	}

	ok, err := e.checkStock(ctx, productID, 1)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: product %d", ErrOutOfStock, productID)
	}

	product, err := e.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: product %d: %w", ErrProductNotFound, productID, err)
	}
	product.ID = productID
	product.Amount = 1

	return e.commit(ctx, append(snapshot, product))
}

// RemoveProduct drops productID from the cart. No remote calls are made.
func (e *Engine) RemoveProduct(ctx context.Context, productID int64) error {
	ctx, span := e.startSpan(ctx, "engine.RemoveProduct", productID)
	defer span.End()

	err := e.removeProduct(ctx, productID)
	endSpan(span, err)
	return err
}

func (e *Engine) removeProduct(ctx context.Context, productID int64) error {
	snapshot := e.Cart()
	i := snapshot.Index(productID)
	if i < 0 {
		return fmt.Errorf("%w: product %d", ErrProductNotInCart, productID)
	}

	next := append(snapshot[:i:i], snapshot[i+1:]...)
	return e.commit(ctx, next)
}

// UpdateProductAmount sets the amount of a product already in the cart. It
// is the only path that raises an amount, so the stock limit for existing
// lines is enforced here alone.
func (e *Engine) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	ctx, span := e.startSpan(ctx, "engine.UpdateProductAmount", req.ProductID)
	defer span.End()
	span.SetAttributes(attribute.Int("cart.amount", req.Amount))

	err := e.updateProductAmount(ctx, req.ProductID, req.Amount)
	endSpan(span, err)
	return err
}

func (e *Engine) updateProductAmount(ctx context.Context, productID int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	ok, err := e.checkStock(ctx, productID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: product %d, requested %d", ErrOutOfStock, productID, amount)
	}

	snapshot := e.Cart()
	i := snapshot.Index(productID)
	if i < 0 {
		return fmt.Errorf("%w: product %d", ErrProductNotInCart, productID)
	}
	snapshot[i].Amount = amount

	return e.commit(ctx, snapshot)
}

// commit writes next to the store and then makes it the in-memory cart. If
// the store write fails the in-memory cart is left as it was.
func (e *Engine) commit(ctx context.Context, next domain.Cart) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to store cart: %w", ErrPersistence, err)
	}

	e.commitMu.Lock()
	if err := e.store.Save(ctx, next); err != nil {
		e.commitMu.Unlock()
		e.log.ErrorContext(ctx, "cart save failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.mu.Lock()
	e.cart = next
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()
	e.commitMu.Unlock()

	e.log.DebugContext(ctx, "cart committed", "products", len(next), "items", next.TotalItems())

	for _, s := range subs {
		s.fn(next.Clone())
	}
	return nil
}

func (e *Engine) startSpan(ctx context.Context, name string, productID int64) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("product.id", productID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// notFound reports whether a remote read failed because the record is absent.
func notFound(err error) bool {
	return errors.Is(err, inventory.ErrNotFound)
}
