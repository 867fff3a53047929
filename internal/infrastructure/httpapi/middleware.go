package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"orderpipeline/internal/observability"
	"orderpipeline/internal/observability/logctx"
)

const headerRequestID = "X-Request-ID"

// TraceMiddleware creates a server span per request using OTel with W3C
// trace context propagation.
func TraceMiddleware() mux.MiddlewareFunc {
	tracer := otel.Tracer("orderpipeline.http")
	prop := otel.GetTextMapPropagator() // W3C by default

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parentCtx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			route := routeTemplate(r)
			ctx, span := tracer.Start(parentCtx,
				r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.user_agent", r.UserAgent()),
				),
			)
			defer span.End()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ObservabilityMiddleware injects the request-scoped logger (request id,
// trace/span ids) and records RED metrics with the low-cardinality route
// template as label.
func ObservabilityMiddleware(base observability.Logger, tel observability.Observability) mux.MiddlewareFunc {
	if base == nil {
		base = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sc := trace.SpanContextFromContext(ctx)

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if sc.IsValid() {
				fields = append(fields,
					observability.F("trace_id", sc.TraceID().String()),
					observability.F("span_id", sc.SpanID().String()),
				)
			}
			reqLogger := base.With(fields...)
			ctx = logctx.With(ctx, reqLogger)

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))

			route := routeTemplate(r)
			statusLabel := strconv.Itoa(lrw.status)

			tel.Metrics().Counter(observability.MHTTPRequests).Add(1,
				observability.L("method", r.Method),
				observability.L("route", route),
				observability.L("status", statusLabel),
			)
			tel.Metrics().Histogram(observability.MHTTPRequestDuration).Observe(time.Since(start).Seconds(),
				observability.L("method", r.Method),
				observability.L("route", route),
				observability.L("status", statusLabel),
			)
		})
	}
}

// AccessLogMiddleware writes a single access log after the handler
// completes, using the request-scoped logger when present.
func AccessLogMiddleware(base observability.Logger) mux.MiddlewareFunc {
	if base == nil {
		base = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lrw, r)

			logctx.FromOr(r.Context(), base).Info("http_access",
				observability.F("method", r.Method),
				observability.F("route", routeTemplate(r)),
				observability.F("path", r.URL.Path),
				observability.F("status", lrw.status),
				observability.F("latency_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// routeTemplate returns the mux route template for low-cardinality labels,
// falling back to the raw path outside of mux routing.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil && tpl != "" {
			return tpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
