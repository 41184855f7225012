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

// StockClient reads stock levels from the inventory service.
type StockClient struct {
	f *fetcher
}

func NewStockClient(baseURL string, client *http.Client, cfg circuitbreaker.Config, log *slog.Logger) *StockClient {
	return &StockClient{f: newFetcher("stock", baseURL, client, cfg, log)}
}

func (c *StockClient) GetStock(ctx context.Context, productID int64) (domain.Stock, error) {
	body, err := c.f.get(ctx, fmt.Sprintf("/stock/%d", productID))
	if err != nil {
		return domain.Stock{}, err
	}

	var stock domain.Stock
	if err := json.Unmarshal(body, &stock); err != nil {
		return domain.Stock{}, fmt.Errorf("decode stock failed: %w", err)
	}
	return stock, nil
}

func (c *StockClient) ListStock(ctx context.Context) ([]domain.Stock, error) {
	body, err := c.f.get(ctx, "/stock")
	if err != nil {
		return nil, err
	}

	var stocks []domain.Stock
	if err := json.Unmarshal(body, &stocks); err != nil {
		return nil, fmt.Errorf("decode stock list failed: %w", err)
	}
	return stocks, nil
}
