// Package httpapi binds the order workflow to HTTP. It owns request
// deserialization and the mapping from the rejection taxonomy to status
// codes; everything else is delegated to the processor.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	approrder "orderpipeline/internal/application/order"
	domain "orderpipeline/internal/domain/order"
	"orderpipeline/internal/observability"
)

const componentHTTPHandler = "http_server"

type Handler struct {
	processor *approrder.Processor
	log       observability.Logger
	tel       observability.Observability
}

func NewHandler(processor *approrder.Processor, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		processor: processor,
		log:       baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:       tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	// Middleware order: trace span first, then request logger + HTTP
	// metrics, then the access log closest to the handler.
	r.Use(
		TraceMiddleware(),
		ObservabilityMiddleware(h.log, h.tel),
		AccessLogMiddleware(h.log),
	)

	r.HandleFunc("/orders", h.handleSubmitOrder).Methods(http.MethodPost)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	return r
}

type orderItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type paymentDTO struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	CardNumber string `json:"card_number"`
	CardExpiry string `json:"card_expiry"`
}

type submitOrderRequest struct {
	OrderID       string         `json:"order_id"`
	CustomerEmail string         `json:"customer_email"`
	Items         []orderItemDTO `json:"items"`
	Payment       paymentDTO     `json:"payment"`
}

type submitOrderResponse struct {
	OrderID     string        `json:"order_id"`
	Status      domain.Status `json:"status"`
	ProcessedAt time.Time     `json:"processed_at"`
	PaymentID   string        `json:"payment_id"`
	EmailSent   bool          `json:"email_sent"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]domain.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.processor.Process(r.Context(), domain.Request{
		OrderID:       req.OrderID,
		CustomerEmail: req.CustomerEmail,
		Items:         items,
		Payment: domain.PaymentInstrument{
			Amount:     req.Payment.Amount,
			Currency:   req.Payment.Currency,
			CardNumber: req.Payment.CardNumber,
			CardExpiry: req.Payment.CardExpiry,
		},
	})
	if err != nil {
		writeRejection(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitOrderResponse{
		OrderID:     result.OrderID,
		Status:      result.Status,
		ProcessedAt: result.ProcessedAt,
		PaymentID:   result.PaymentID,
		EmailSent:   result.EmailSent,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeRejection maps the processor's rejection taxonomy onto status codes.
func writeRejection(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approrder.ErrInvalidRequest),
		errors.Is(err, approrder.ErrInsufficientInventory):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, approrder.ErrDuplicateOrder):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, approrder.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, approrder.ErrPaymentUnavailable):
		writeError(w, http.StatusBadGateway, err)
	default:
		// Unexpected faults come back as the opaque internal error; never
		// leak whatever was underneath.
		writeError(w, http.StatusInternalServerError, approrder.ErrInternal)
	}
}
