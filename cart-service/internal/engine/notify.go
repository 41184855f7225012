package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/go_cart/cart-service/internal/domain"
)

type Operation string

const (
	OpAddProduct          Operation = "add_product"
	OpRemoveProduct       Operation = "remove_product"
	OpUpdateProductAmount Operation = "update_product_amount"
	OpCheckStock          Operation = "check_stock"
)

const (
	MsgAddFailed         = "failed to add product"
	MsgRemoveFailed      = "failed to remove product"
	MsgUpdateFailed      = "failed to update product amount"
	MsgInsufficientStock = "requested quantity is out of stock"
)

// Notification is a user-facing message about a failed action.
type Notification struct {
	Operation Operation
	ProductID int64
	Message   string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

// LogNotifier writes notifications to a logger at warn level.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	n.log.WarnContext(ctx, note.Message,
		"operation", string(note.Operation),
		"product_id", note.ProductID,
	)
}

// FailureMessage is the single message shown for a failed operation.
// Out of stock failures use the stock message; every other error kind
// collapses into the generic message of the operation.
func FailureMessage(op Operation, err error) string {
	if errors.Is(err, ErrOutOfStock) {
		return MsgInsufficientStock
	}
	switch op {
	case OpAddProduct:
		return MsgAddFailed
	case OpRemoveProduct:
		return MsgRemoveFailed
	case OpUpdateProductAmount:
		return MsgUpdateFailed
	default:
		return err.Error()
	}
}

// Notifying wraps an Engine and sends one notification for each failed
// operation, keeping the typed error for the caller. Out of stock failures
// are not notified again because checkStock already did.
type Notifying struct {
	*Engine
	notifier Notifier
}

func NewNotifying(e *Engine, n Notifier) *Notifying {
	return &Notifying{Engine: e, notifier: n}
}

func (n *Notifying) AddProduct(ctx context.Context, productID int64) error {
	err := n.Engine.AddProduct(ctx, productID)
	n.report(ctx, OpAddProduct, productID, err)
	return err
}

func (n *Notifying) RemoveProduct(ctx context.Context, productID int64) error {
	err := n.Engine.RemoveProduct(ctx, productID)
	n.report(ctx, OpRemoveProduct, productID, err)
	return err
}

func (n *Notifying) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	err := n.Engine.UpdateProductAmount(ctx, req)
	n.report(ctx, OpUpdateProductAmount, req.ProductID, err)
	return err
}

func (n *Notifying) report(ctx context.Context, op Operation, productID int64, err error) {
	if err == nil || errors.Is(err, ErrOutOfStock) {
		return
	}
	n.notifier.Notify(ctx, Notification{
		Operation: op,
		ProductID: productID,
		Message:   FailureMessage(op, err),
	})
}

// Subscriber is what consumers see: the current cart, change notifications
// and the three mutations. Nothing else can change the cart.
type Subscriber interface {
	Cart() domain.Cart
	Subscribe(fn func(domain.Cart)) (unsubscribe func())
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error
}

var (
	_ Subscriber = (*Engine)(nil)
	_ Subscriber = (*Notifying)(nil)
)
