package sim

import (
	"context"
	"sync"

	"orderpipeline/internal/observability"
)

// Notifier records confirmations instead of sending mail.
type Notifier struct {
	mu   sync.Mutex
	sent []Delivery
	log  observability.Logger
}

type Delivery struct {
	Email   string
	OrderID string
}

func NewNotifier(logger observability.Logger) *Notifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Notifier{log: logger.With(observability.F("component", "sim_notifier"))}
}

func (n *Notifier) Notify(ctx context.Context, email, orderID string) (bool, error) {
	_ = ctx

	n.mu.Lock()
	n.sent = append(n.sent, Delivery{Email: email, OrderID: orderID})
	n.mu.Unlock()

	n.log.Info("notification_sent",
		observability.F("order_id", orderID),
	)
	return true, nil
}

// Sent returns a copy of all recorded deliveries.
func (n *Notifier) Sent() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Delivery(nil), n.sent...)
}
