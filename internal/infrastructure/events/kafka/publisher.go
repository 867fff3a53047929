// Package kafka publishes domain events to a Kafka topic for consumers that
// outlive this process. Selected over the in-memory bus via configuration.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"orderpipeline/internal/domain/event"
	"orderpipeline/internal/observability"
)

type Publisher struct {
	writer *kafkago.Writer
	log    observability.Logger
}

func NewPublisher(broker, topic string, logger observability.Logger) *Publisher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(broker),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
		log: logger.With(observability.F("component", "kafka_publisher")),
	}
}

// Publish serializes the event as JSON keyed by event name. The caller
// bounds the context; a broker outage surfaces as an error here and is
// handled as best-effort upstream.
func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	if e == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", e.EventName(), err)
	}

	msg := kafkago.Message{
		Key:   []byte(e.EventName()),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.EventName(), err)
	}

	p.log.Debug("event_published",
		observability.F("event", e.EventName()),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
