// Package audit consumes order.processed events and turns them into an
// audit log line and a counter. It never influences order processing.
package audit

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"orderpipeline/internal/domain/event"
	domorder "orderpipeline/internal/domain/order"
	"orderpipeline/internal/observability"
)

const (
	auditService = "order-audit"
	useCaseAudit = "order.audit.processed"
	spanPrefix   = "UC."
)

type Worker struct {
	subscriber event.Subscriber
	tel        observability.Observability

	log              observability.Logger
	reqCounter       observability.Counter // usecase_requests_total{use_case,outcome}
	durHistogram     observability.Histogram
	processedCounter observability.Counter // orders_processed_total{email_sent}
}

func New(subscriber event.Subscriber, tel observability.Observability, logger observability.Logger) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	base := logger
	if base == nil {
		base = tel.Logger()
	}
	base = base.With(
		observability.F("service", auditService),
	)

	metrics := tel.Metrics()

	return &Worker{
		subscriber:       subscriber,
		tel:              tel,
		log:              base,
		reqCounter:       metrics.Counter(observability.MUsecaseRequests),
		durHistogram:     metrics.Histogram(observability.MUsecaseDuration),
		processedCounter: metrics.Counter(observability.MOrdersProcessed),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domorder.ProcessedEvent{}.EventName(), w.handleOrderProcessed)
}

func (w *Worker) handleOrderProcessed(ctx context.Context, e event.Event) error {
	evt, ok := e.(domorder.ProcessedEvent)
	if !ok {
		w.count("ignored")
		return nil
	}

	_, span := w.tel.Tracer().Start(ctx, spanPrefix+"AuditOrderProcessed",
		attribute.String("use_case", useCaseAudit),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()

	w.log.Info("order_audit",
		observability.F("use_case", useCaseAudit),
		observability.F("order_id", evt.OrderID),
		observability.F("payment_id", evt.PaymentID),
		observability.F("email_sent", evt.EmailSent),
		observability.F("occurred_at", evt.OccurredAt),
	)

	if w.processedCounter != nil {
		w.processedCounter.Add(1,
			observability.L("email_sent", strconv.FormatBool(evt.EmailSent)),
		)
	}
	w.count("success")
	if w.durHistogram != nil {
		w.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCaseAudit),
		)
	}

	span.SetStatus(codes.Ok, "OK")
	span.End()
	return nil
}

func (w *Worker) count(outcome string) {
	if w.reqCounter != nil {
		w.reqCounter.Add(1,
			observability.L("use_case", useCaseAudit),
			observability.L("outcome", outcome),
		)
	}
}
