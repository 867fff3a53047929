package order

import (
	"context"
	"time"

	domain "orderpipeline/internal/domain/order"
)

// InventoryService checks and decrements per-product stock. Both calls may
// fail at the transport level; the processor folds such failures into the
// step semantics instead of re-raising them.
type InventoryService interface {
	CheckAvailability(ctx context.Context, productID string, quantity int) (bool, error)
	Decrement(ctx context.Context, productID string, quantity int) (bool, error)
}

// PaymentService authorizes a charge against a payment instrument.
type PaymentService interface {
	Authorize(ctx context.Context, instrument domain.PaymentInstrument) (domain.PaymentOutcome, error)
}

// NotificationService sends an order confirmation to a customer address.
type NotificationService interface {
	Notify(ctx context.Context, email, orderID string) (bool, error)
}

// DedupCache tracks recently processed order ids. IsDuplicate and Record are
// each atomic with respect to concurrent calls on the same key; entries older
// than the cache's window read as absent.
type DedupCache interface {
	IsDuplicate(ctx context.Context, orderID string) bool
	Record(ctx context.Context, orderID string, at time.Time)
}

type IDGenerator interface {
	NewID() string
}
