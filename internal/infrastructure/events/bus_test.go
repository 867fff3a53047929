package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpipeline/internal/domain/event"
	domorder "orderpipeline/internal/domain/order"
)

func TestBus_DeliversToSubscriber(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	received := make(chan event.Event, 1)
	bus.Subscribe("order.processed", func(_ context.Context, e event.Event) error {
		received <- e
		return nil
	})

	evt := domorder.ProcessedEvent{OrderID: "O1", PaymentID: "pay-1", EmailSent: true}
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case got := <-received:
		processed, ok := got.(domorder.ProcessedEvent)
		require.True(t, ok)
		assert.Equal(t, "O1", processed.OrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_PanickingHandlerDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	received := make(chan struct{}, 2)
	bus.Subscribe("order.processed", func(context.Context, event.Event) error {
		panic("handler bug")
	})
	bus.Subscribe("order.processed", func(context.Context, event.Event) error {
		received <- struct{}{}
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), domorder.ProcessedEvent{OrderID: "O1"}))
	require.NoError(t, bus.Publish(context.Background(), domorder.ProcessedEvent{OrderID: "O2"}))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("dispatch stalled after handler panic")
		}
	}
}

func TestBus_PublishNilEventIsNoop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	assert.NoError(t, bus.Publish(context.Background(), nil))
}

func TestBus_EventWithoutSubscriberIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	assert.NoError(t, bus.Publish(context.Background(), domorder.ProcessedEvent{OrderID: "O1"}))
}
