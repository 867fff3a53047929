package sim

import (
	"context"

	approrder "orderpipeline/internal/application/order"
	domain "orderpipeline/internal/domain/order"
)

// Authorizer approves charges deterministically: anything over the decline
// threshold is declined, mimicking an issuer limit. A zero threshold
// approves everything.
type Authorizer struct {
	ids         approrder.IDGenerator
	declineOver int64
}

func NewAuthorizer(ids approrder.IDGenerator, declineOver int64) *Authorizer {
	return &Authorizer{ids: ids, declineOver: declineOver}
}

func (a *Authorizer) Authorize(ctx context.Context, instrument domain.PaymentInstrument) (domain.PaymentOutcome, error) {
	_ = ctx

	if instrument.CardNumber == "" {
		return domain.PaymentOutcome{
			ErrorMessage: "card number is required",
		}, nil
	}
	if a.declineOver > 0 && instrument.Amount > a.declineOver {
		return domain.PaymentOutcome{
			ErrorMessage: "amount exceeds authorization limit",
		}, nil
	}

	return domain.PaymentOutcome{
		Success:   true,
		PaymentID: "pay-" + a.ids.NewID(),
	}, nil
}
