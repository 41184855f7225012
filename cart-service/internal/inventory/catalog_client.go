package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/pkg/circuitbreaker"
)

// CatalogClient reads product details from the product service.
type CatalogClient struct {
	f *fetcher
}

func NewCatalogClient(baseURL string, client *http.Client, cfg circuitbreaker.Config, log *slog.Logger) *CatalogClient {
	return &CatalogClient{f: newFetcher("catalog", baseURL, client, cfg, log)}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	body, err := c.f.get(ctx, fmt.Sprintf("/products/%d", productID))
	if err != nil {
		return domain.Product{}, err
	}

	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return domain.Product{}, fmt.Errorf("decode product failed: %w", err)
	}
	return product, nil
}
