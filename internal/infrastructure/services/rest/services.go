package rest

import (
	"context"
	"time"

	domain "orderpipeline/internal/domain/order"
)

type Inventory struct{ c client }

func NewInventory(baseURL string, timeout time.Duration) *Inventory {
	return &Inventory{c: newClient(baseURL, timeout)}
}

type stockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Inventory) CheckAvailability(ctx context.Context, productID string, quantity int) (bool, error) {
	var resp struct {
		Available bool `json:"available"`
	}
	err := s.c.postJSON(ctx, "/availability", stockRequest{ProductID: productID, Quantity: quantity}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

func (s *Inventory) Decrement(ctx context.Context, productID string, quantity int) (bool, error) {
	var resp struct {
		OK bool `json:"ok"`
	}
	err := s.c.postJSON(ctx, "/decrement", stockRequest{ProductID: productID, Quantity: quantity}, &resp)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

type Payment struct{ c client }

func NewPayment(baseURL string, timeout time.Duration) *Payment {
	return &Payment{c: newClient(baseURL, timeout)}
}

func (p *Payment) Authorize(ctx context.Context, instrument domain.PaymentInstrument) (domain.PaymentOutcome, error) {
	req := struct {
		Amount     int64  `json:"amount"`
		Currency   string `json:"currency"`
		CardNumber string `json:"card_number"`
		CardExpiry string `json:"card_expiry"`
	}{
		Amount:     instrument.Amount,
		Currency:   instrument.Currency,
		CardNumber: instrument.CardNumber,
		CardExpiry: instrument.CardExpiry,
	}

	var resp struct {
		Success      bool   `json:"success"`
		PaymentID    string `json:"payment_id"`
		ErrorMessage string `json:"error_message"`
	}
	if err := p.c.postJSON(ctx, "/authorize", req, &resp); err != nil {
		return domain.PaymentOutcome{}, err
	}
	return domain.PaymentOutcome{
		Success:      resp.Success,
		PaymentID:    resp.PaymentID,
		ErrorMessage: resp.ErrorMessage,
	}, nil
}

type Notifier struct{ c client }

func NewNotifier(baseURL string, timeout time.Duration) *Notifier {
	return &Notifier{c: newClient(baseURL, timeout)}
}

func (n *Notifier) Notify(ctx context.Context, email, orderID string) (bool, error) {
	req := struct {
		Email   string `json:"email"`
		OrderID string `json:"order_id"`
	}{Email: email, OrderID: orderID}

	var resp struct {
		Sent bool `json:"sent"`
	}
	if err := n.c.postJSON(ctx, "/notifications", req, &resp); err != nil {
		return false, err
	}
	return resp.Sent, nil
}
