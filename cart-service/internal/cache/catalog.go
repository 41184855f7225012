package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/go_cart/cart-service/internal/domain"
)

type ProductReader interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

// CachedCatalog is a read-through ProductReader. Cache failures are logged
// and fall back to the catalog; catalog errors are never cached.
type CachedCatalog struct {
	next  ProductReader
	cache ProductCache
	log   *slog.Logger
}

func NewCachedCatalog(next ProductReader, cache ProductCache, log *slog.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, log: log}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	product, err := c.cache.Get(ctx, productID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.log.WarnContext(ctx, "product cache read failed", "product_id", productID, "error", err)
	}

	product, err = c.next.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}

	if err := c.cache.Set(ctx, product); err != nil {
		c.log.WarnContext(ctx, "product cache write failed", "product_id", productID, "error", err)
	}
	return product, nil
}
