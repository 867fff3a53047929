package order

import (
	"errors"
	"time"
)

var (
	ErrEmptyOrderID    = errors.New("order: order id is required")
	ErrNoItems         = errors.New("order: at least one item is required")
	ErrEmptyProductID  = errors.New("order: product id is required")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount   = errors.New("order: amount must be zero or greater")
)

type Status string

const (
	StatusProcessed Status = "processed"
)

// Request is a customer order submission. The order id is caller-supplied
// and doubles as the deduplication key. A request is owned by a single
// processing call and never mutated after submission.
type Request struct {
	OrderID       string
	CustomerEmail string
	Items         []Item
	Payment       PaymentInstrument
}

type Item struct {
	ProductID string
	Quantity  int
}

// PaymentInstrument carries the charge amount and card credentials.
// Credentials are sensitive; log Redacted(), never the raw number.
type PaymentInstrument struct {
	Amount     int64 // minor units
	Currency   string
	CardNumber string
	CardExpiry string
}

// Redacted returns the card number reduced to its last four digits.
func (p PaymentInstrument) Redacted() string {
	const keep = 4
	if len(p.CardNumber) <= keep {
		return "****"
	}
	return "****" + p.CardNumber[len(p.CardNumber)-keep:]
}

// Result is the terminal outcome of an accepted order, produced exactly
// once per request.
type Result struct {
	OrderID     string
	Status      Status
	ProcessedAt time.Time
	PaymentID   string
	EmailSent   bool
}

// PaymentOutcome is the authorization verdict from the payment collaborator.
// PaymentID is set iff Success; ErrorMessage is set iff not.
type PaymentOutcome struct {
	Success      bool
	PaymentID    string
	ErrorMessage string
}

func (r Request) Validate() error {
	if r.OrderID == "" {
		return ErrEmptyOrderID
	}
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			return ErrEmptyProductID
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if r.Payment.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
