package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() Request {
	return Request{
		OrderID:       "O1",
		CustomerEmail: "a@b.com",
		Items:         []Item{{ProductID: "P1", Quantity: 2}},
		Payment: PaymentInstrument{
			Amount:     1999,
			Currency:   "USD",
			CardNumber: "4111111111111111",
		},
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{name: "valid", mutate: func(*Request) {}, wantErr: nil},
		{name: "empty order id", mutate: func(r *Request) { r.OrderID = "" }, wantErr: ErrEmptyOrderID},
		{name: "no items", mutate: func(r *Request) { r.Items = nil }, wantErr: ErrNoItems},
		{name: "empty product id", mutate: func(r *Request) { r.Items[0].ProductID = "" }, wantErr: ErrEmptyProductID},
		{name: "zero quantity", mutate: func(r *Request) { r.Items[0].Quantity = 0 }, wantErr: ErrInvalidQuantity},
		{name: "negative amount", mutate: func(r *Request) { r.Payment.Amount = -1 }, wantErr: ErrInvalidAmount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			err := req.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPaymentInstrumentRedacted(t *testing.T) {
	p := PaymentInstrument{CardNumber: "4111111111111111"}
	assert.Equal(t, "****1111", p.Redacted())

	short := PaymentInstrument{CardNumber: "123"}
	assert.Equal(t, "****", short.Redacted())

	empty := PaymentInstrument{}
	assert.Equal(t, "****", empty.Redacted())
}
