package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpipeline/internal/domain/inventory"
	domain "orderpipeline/internal/domain/order"
)

func TestInventory_DefaultStockForUnknownProduct(t *testing.T) {
	inv := NewInventory(10)
	ctx := context.Background()

	ok, err := inv.CheckAvailability(ctx, "P1", 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.CheckAvailability(ctx, "P1", 11)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInventory_SetStockOverridesDefault(t *testing.T) {
	inv := NewInventory(100)
	inv.SetStock("P1", 1)

	ok, err := inv.CheckAvailability(context.Background(), "P1", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, inv.Stock("P1"))
}

func TestInventory_DecrementReducesStock(t *testing.T) {
	inv := NewInventory(0)
	inv.SetStock("P1", 5)
	ctx := context.Background()

	ok, err := inv.Decrement(ctx, "P1", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, inv.Stock("P1"))

	ok, err = inv.Decrement(ctx, "P1", 3)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.False(t, ok)
	assert.Equal(t, 2, inv.Stock("P1"))
}

func TestInventory_DecrementRejectsNonPositiveQuantity(t *testing.T) {
	inv := NewInventory(5)

	ok, err := inv.Decrement(context.Background(), "P1", 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	assert.False(t, ok)
}

func TestAuthorizer_ApprovesWithReference(t *testing.T) {
	auth := NewAuthorizer(staticIDs{}, 0)

	out, err := auth.Authorize(context.Background(), instrument(1999))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "pay-fixed", out.PaymentID)
	assert.Empty(t, out.ErrorMessage)
}

func TestAuthorizer_DeclinesOverLimit(t *testing.T) {
	auth := NewAuthorizer(staticIDs{}, 1000)

	out, err := auth.Authorize(context.Background(), instrument(1001))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Empty(t, out.PaymentID)
	assert.NotEmpty(t, out.ErrorMessage)
}

func TestAuthorizer_RejectsMissingCard(t *testing.T) {
	auth := NewAuthorizer(staticIDs{}, 0)

	inst := instrument(100)
	inst.CardNumber = ""
	out, err := auth.Authorize(context.Background(), inst)
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestNotifier_RecordsDeliveries(t *testing.T) {
	n := NewNotifier(nil)

	sent, err := n.Notify(context.Background(), "a@b.com", "O1")
	require.NoError(t, err)
	assert.True(t, sent)

	deliveries := n.Sent()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "a@b.com", deliveries[0].Email)
	assert.Equal(t, "O1", deliveries[0].OrderID)
}

type staticIDs struct{}

func (staticIDs) NewID() string { return "fixed" }

func instrument(amount int64) domain.PaymentInstrument {
	return domain.PaymentInstrument{
		Amount:     amount,
		Currency:   "USD",
		CardNumber: "4111111111111111",
		CardExpiry: "12/30",
	}
}
