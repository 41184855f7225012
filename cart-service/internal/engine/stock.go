package engine

import (
	"context"
	"fmt"
)

// checkStock reports whether amount units of productID are available right
// now. Stock is read on every call, never cached. A product the inventory
// service does not know has no stock. Whenever the answer is false an
// insufficient stock notification goes out.
func (e *Engine) checkStock(ctx context.Context, productID int64, amount int) (bool, error) {
	stock, err := e.stock.GetStock(ctx, productID)
	if err != nil {
		if notFound(err) {
			e.notifyInsufficientStock(ctx, productID, amount, 0)
			return false, nil
		}
		return false, fmt.Errorf("%w: product %d: %w", ErrStockUnavailable, productID, err)
	}

	if stock.Amount < amount {
		e.notifyInsufficientStock(ctx, productID, amount, stock.Amount)
		return false, nil
	}
	return true, nil
}

func (e *Engine) notifyInsufficientStock(ctx context.Context, productID int64, requested, available int) {
	e.log.InfoContext(ctx, "insufficient stock",
		"product_id", productID,
		"requested", requested,
		"available", available,
	)
	e.notifier.Notify(ctx, Notification{
		Operation: OpCheckStock,
		ProductID: productID,
		Message:   MsgInsufficientStock,
	})
}

// StockIssue describes a cart line that the current stock no longer covers.
type StockIssue struct {
	ProductID int64 `json:"product_id"`
	InCart    int   `json:"in_cart"`
	Available int   `json:"available"`
	// Missing is set when the inventory service has no record at all.
	Missing bool `json:"missing"`
}

// StockReport compares the cart with the full stock listing and returns the
// lines that exceed what is available now. It never changes the cart; stock
// drifting after a commit is expected and is only reported.
func (e *Engine) StockReport(ctx context.Context) ([]StockIssue, error) {
	ctx, span := e.tracer.Start(ctx, "engine.StockReport")
	defer span.End()

	stocks, err := e.stock.ListStock(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStockUnavailable, err)
		endSpan(span, err)
		return nil, err
	}

	available := make(map[int64]int, len(stocks))
	for _, s := range stocks {
		available[s.ID] = s.Amount
	}

	issues := []StockIssue{}
	for _, p := range e.Cart() {
		amount, ok := available[p.ID]
		switch {
		case !ok:
			issues = append(issues, StockIssue{ProductID: p.ID, InCart: p.Amount, Missing: true})
		case p.Amount > amount:
			issues = append(issues, StockIssue{ProductID: p.ID, InCart: p.Amount, Available: amount})
		}
	}
	return issues, nil
}
