package order

import "time"

// ProcessedEvent is a domain event emitted after an order has completed the
// full workflow. It is intended for downstream consumers (audit, analytics);
// delivery is best-effort and never affects the order outcome.
type ProcessedEvent struct {
	OrderID    string    `json:"order_id"`
	PaymentID  string    `json:"payment_id"`
	EmailSent  bool      `json:"email_sent"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (ProcessedEvent) EventName() string { return "order.processed" }

func NewProcessedEvent(r *Result) ProcessedEvent {
	return ProcessedEvent{
		OrderID:    r.OrderID,
		PaymentID:  r.PaymentID,
		EmailSent:  r.EmailSent,
		OccurredAt: time.Now().UTC(),
	}
}
