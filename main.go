package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"orderpipeline/internal/application/audit"
	approrder "orderpipeline/internal/application/order"
	"orderpipeline/internal/config"
	"orderpipeline/internal/domain/event"
	"orderpipeline/internal/infrastructure/dedup"
	"orderpipeline/internal/infrastructure/events"
	kafkaevents "orderpipeline/internal/infrastructure/events/kafka"
	"orderpipeline/internal/infrastructure/httpapi"
	"orderpipeline/internal/infrastructure/id"
	"orderpipeline/internal/infrastructure/observability/oteltrace"
	"orderpipeline/internal/infrastructure/observability/prometrics"
	"orderpipeline/internal/infrastructure/observability/telemetry"
	"orderpipeline/internal/infrastructure/observability/zaplogger"
	"orderpipeline/internal/infrastructure/services/rest"
	"orderpipeline/internal/infrastructure/services/sim"
	"orderpipeline/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	defer func() {
		if s, ok := logger.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	if cfg.TraceStdout {
		exp, terr := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if terr != nil {
			log.Fatalf("trace exporter: %v", terr)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	registry := prometrics.New(cfg.ServiceName, "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of outbound collaborator calls.",
			"peer", "endpoint", "outcome",
		),
		observability.MOrdersProcessed: registry.Counter(
			string(observability.MOrdersProcessed),
			"Count of orders that completed the workflow.",
			"email_sent",
		),
		observability.MInventoryDriftFailures: registry.Counter(
			string(observability.MInventoryDriftFailures),
			"Count of best-effort inventory decrements that failed after payment.",
			"product_id",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.",
			nil,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of outbound collaborator calls in seconds.",
			nil,
			"peer", "endpoint",
		),
	}
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	var dedupCache approrder.DedupCache
	switch cfg.DedupBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		dedupCache = dedup.NewRedisCache(rdb, cfg.DedupWindow, logger)
	default:
		dedupCache = dedup.NewMemoryCache(cfg.DedupWindow)
	}

	var (
		inventorySvc approrder.InventoryService
		paymentSvc   approrder.PaymentService
		notifySvc    approrder.NotificationService
	)
	switch cfg.ServicesMode {
	case config.ServicesREST:
		inventorySvc = rest.NewInventory(cfg.InventoryURL, cfg.CallTimeout)
		paymentSvc = rest.NewPayment(cfg.PaymentURL, cfg.CallTimeout)
		notifySvc = rest.NewNotifier(cfg.NotifyURL, cfg.CallTimeout)
	default:
		inventorySvc = sim.NewInventory(cfg.SimInitialStock)
		paymentSvc = sim.NewAuthorizer(id.NewUUIDGenerator(), cfg.SimDeclineOver)
		notifySvc = sim.NewNotifier(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher event.Publisher
	switch cfg.EventsBackend {
	case config.EventsKafka:
		kp := kafkaevents.NewPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		defer func() { _ = kp.Close() }()
		publisher = kp
	default:
		bus := events.NewBus(logger)
		bus.Start(context.Background())
		defer bus.Stop(context.Background())

		auditWorker := audit.New(bus, tel, logger)
		auditWorker.Start()
		publisher = bus
	}

	processor := approrder.NewProcessor(
		inventorySvc,
		paymentSvc,
		notifySvc,
		dedupCache,
		publisher,
		tel,
		cfg.CallTimeout,
	)
	handler := httpapi.NewHandler(processor, logger, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}
