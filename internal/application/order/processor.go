package order

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"orderpipeline/internal/domain/event"
	domain "orderpipeline/internal/domain/order"
	"orderpipeline/internal/observability"
	"orderpipeline/internal/observability/logctx"
)

const (
	processorService    = "order-processor"
	useCaseProcessOrder = "order.process"
	spanPrefix          = "UC."

	defaultCallTimeout = 30 * time.Second
	publishTimeout     = 300 * time.Millisecond
)

// Rejection taxonomy. Every failed Process call resolves to exactly one of
// these; callers discriminate with errors.Is.
var (
	ErrInvalidRequest        = errors.New("order: invalid request")
	ErrDuplicateOrder        = errors.New("order: duplicate submission")
	ErrInsufficientInventory = errors.New("order: insufficient inventory")
	ErrPaymentDeclined       = errors.New("order: payment declined")
	ErrPaymentUnavailable    = errors.New("order: payment service unavailable")
	ErrInternal              = errors.New("order: internal error")
)

// Processor coordinates the end-to-end order workflow: dedup check,
// per-item inventory validation, payment authorization, per-item inventory
// decrement, customer notification, and dedup recording.
type Processor struct {
	inventory InventoryService
	payment   PaymentService
	notifier  NotificationService
	dedup     DedupCache
	publisher event.Publisher
	tel       observability.Observability

	callTimeout time.Duration
	now         func() time.Time

	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	driftCounter observability.Counter   // inventory_decrement_failures_total{product_id}
}

// NewProcessor wires the collaborators required to execute the workflow.
// A nil publisher disables event emission; callTimeout <= 0 falls back to
// the 30s default.
func NewProcessor(
	inventory InventoryService,
	payment PaymentService,
	notifier NotificationService,
	dedup DedupCache,
	publisher event.Publisher,
	tel observability.Observability,
	callTimeout time.Duration,
) *Processor {
	if tel == nil {
		tel = observability.Nop()
	}
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	baseLog := tel.Logger().With(
		observability.F("service", processorService),
	)

	metrics := tel.Metrics()

	return &Processor{
		inventory:    inventory,
		payment:      payment,
		notifier:     notifier,
		dedup:        dedup,
		publisher:    publisher,
		tel:          tel,
		callTimeout:  callTimeout,
		now:          time.Now,
		log:          baseLog,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		driftCounter: metrics.Counter(observability.MInventoryDriftFailures),
	}
}

// Process runs the full workflow for one submission. Steps are strictly
// sequential and each gates the next; only the per-item inventory calls in
// the validation and decrement steps fan out concurrently.
func (p *Processor) Process(ctx context.Context, req domain.Request) (res *domain.Result, err error) {
	logger := logctx.FromOr(ctx, p.log).With(
		observability.F("use_case", useCaseProcessOrder),
		observability.F("order_id", req.OrderID),
	)

	ctx, span := p.tel.Tracer().Start(ctx, spanPrefix+"ProcessOrder",
		attribute.String("use_case", useCaseProcessOrder),
		attribute.String("order.id", req.OrderID),
		attribute.Int("order.items", len(req.Items)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if p.reqCounter != nil {
			p.reqCounter.Add(1,
				observability.L("use_case", useCaseProcessOrder),
				observability.L("outcome", outcome),
			)
		}
		if p.durHistogram != nil {
			p.durHistogram.Observe(lat,
				observability.L("use_case", useCaseProcessOrder),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	// A collaborator fault must never escape as a raw panic; the workflow
	// boundary converts it to a structured internal error.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("process_order_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
			outcome, statusText = "error", "INTERNAL"
			res, err = nil, ErrInternal
		}
	}()

	// Step 1: input validation.
	if verr := req.Validate(); verr != nil {
		outcome, statusText = "error", "INVALID_REQUEST"
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, verr.Error())
	}

	// Step 2: duplicate check. Rejecting here has no side effects.
	if p.dedup.IsDuplicate(ctx, req.OrderID) {
		outcome, statusText = "error", "DUPLICATE_ORDER"
		span.AddEvent("order.duplicate",
			trace.WithAttributes(attribute.String("order.id", req.OrderID)),
		)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, req.OrderID)
	}

	// Step 3: inventory validation, fanned out per item.
	if !p.allItemsAvailable(ctx, logger, req.Items) {
		outcome, statusText = "error", "INSUFFICIENT_INVENTORY"
		return nil, ErrInsufficientInventory
	}

	// Step 4: payment authorization.
	payment, perr := p.authorize(ctx, req.Payment)
	if perr != nil {
		outcome, statusText = "error", "PAYMENT_UNAVAILABLE"
		logger.Warn("payment_call_failed",
			observability.F("instrument", req.Payment.Redacted()),
			observability.F("error", perr.Error()),
		)
		return nil, fmt.Errorf("%w: %s", ErrPaymentUnavailable, perr.Error())
	}
	if !payment.Success {
		outcome, statusText = "error", "PAYMENT_DECLINED"
		logger.Info("payment_declined",
			observability.F("instrument", req.Payment.Redacted()),
			observability.F("reason", payment.ErrorMessage),
		)
		return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, payment.ErrorMessage)
	}

	// Step 5: inventory decrement, best-effort. Individual failures leave
	// stock drift rather than revert an already-captured payment; they are
	// logged and counted, never raised.
	p.decrementAll(ctx, logger, req.Items)

	// Step 6: notification. Failure downgrades EmailSent only.
	emailSent := p.notify(ctx, logger, req.CustomerEmail, req.OrderID)
	if !emailSent {
		statusText = "NOTIFICATION_FAILED"
	}

	// Step 7: record for dedup only after payment succeeded, so a failed
	// attempt can be retried without waiting out the window.
	processedAt := p.now().UTC()
	p.dedup.Record(ctx, req.OrderID, processedAt)

	// Step 8: terminal result.
	result := &domain.Result{
		OrderID:     req.OrderID,
		Status:      domain.StatusProcessed,
		ProcessedAt: processedAt,
		PaymentID:   payment.PaymentID,
		EmailSent:   emailSent,
	}

	p.publishProcessed(ctx, span, logger, result)

	span.SetAttributes(attribute.String("order.payment_id", result.PaymentID))
	span.AddEvent("order.processed",
		trace.WithAttributes(attribute.String("order.id", result.OrderID)),
	)

	return result, nil
}

// allItemsAvailable queries availability for every item concurrently and
// joins before aggregating. A sibling failure never cancels the others; a
// per-item transport error reads as unavailable for that item.
func (p *Processor) allItemsAvailable(ctx context.Context, logger observability.Logger, items []domain.Item) bool {
	available := make([]bool, len(items))

	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
			defer cancel()

			ok, err := p.inventory.CheckAvailability(callCtx, item.ProductID, item.Quantity)
			if err != nil {
				logger.Warn("availability_check_failed",
					observability.F("product_id", item.ProductID),
					observability.F("quantity", item.Quantity),
					observability.F("error", err.Error()),
				)
				return nil
			}
			available[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	all := true
	for i, ok := range available {
		if ok {
			continue
		}
		all = false
		logger.Info("item_unavailable",
			observability.F("product_id", items[i].ProductID),
			observability.F("quantity", items[i].Quantity),
		)
	}
	return all
}

// decrementAll fans out stock decrements and joins. Failures are observed,
// not propagated: there is no compensating transaction for the payment.
func (p *Processor) decrementAll(ctx context.Context, logger observability.Logger, items []domain.Item) {
	var g errgroup.Group
	for _, item := range items {
		item := item
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
			defer cancel()

			ok, err := p.inventory.Decrement(callCtx, item.ProductID, item.Quantity)
			if err != nil || !ok {
				if p.driftCounter != nil {
					p.driftCounter.Add(1,
						observability.L("product_id", item.ProductID),
					)
				}
				fields := []observability.Field{
					observability.F("product_id", item.ProductID),
					observability.F("quantity", item.Quantity),
				}
				if err != nil {
					fields = append(fields, observability.F("error", err.Error()))
				}
				logger.Warn("inventory_decrement_failed", fields...)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Processor) authorize(ctx context.Context, instrument domain.PaymentInstrument) (domain.PaymentOutcome, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := p.payment.Authorize(callCtx, instrument)

	label := "success"
	switch {
	case err != nil:
		label = "error"
	case !outcome.Success:
		label = "declined"
	}
	if p.extCounter != nil {
		p.extCounter.Add(1,
			observability.L("peer", "payment"),
			observability.L("endpoint", "authorize"),
			observability.L("outcome", label),
		)
	}
	if p.extHistogram != nil {
		p.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", "payment"),
			observability.L("endpoint", "authorize"),
		)
	}
	return outcome, err
}

func (p *Processor) notify(ctx context.Context, logger observability.Logger, email, orderID string) bool {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	start := time.Now()
	sent, err := p.notifier.Notify(callCtx, email, orderID)

	label := "success"
	if err != nil || !sent {
		label = "error"
		fields := []observability.Field{
			observability.F("order_id", orderID),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Warn("notification_failed", fields...)
	}
	if p.extCounter != nil {
		p.extCounter.Add(1,
			observability.L("peer", "notification"),
			observability.L("endpoint", "notify"),
			observability.L("outcome", label),
		)
	}
	if p.extHistogram != nil {
		p.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", "notification"),
			observability.L("endpoint", "notify"),
		)
	}
	return err == nil && sent
}

// publishProcessed emits the order.processed event with a short budget so a
// slow bus cannot block the response tail.
func (p *Processor) publishProcessed(ctx context.Context, span trace.Span, logger observability.Logger, result *domain.Result) {
	if p.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.publisher.Publish(pubCtx, domain.NewProcessedEvent(result)); err != nil {
		span.RecordError(err)
		logger.Warn("event_publish_failed",
			observability.F("event", "order.processed"),
			observability.F("error", err.Error()),
		)
	}
}
