package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approrder "orderpipeline/internal/application/order"
	domain "orderpipeline/internal/domain/order"
	"orderpipeline/internal/infrastructure/dedup"
	"orderpipeline/internal/infrastructure/services/sim"
	"orderpipeline/internal/observability"
)

type staticIDs struct{}

func (staticIDs) NewID() string { return "fixed" }

type boomPayment struct{}

func (boomPayment) Authorize(context.Context, domain.PaymentInstrument) (domain.PaymentOutcome, error) {
	panic("payment backend exploded")
}

func newTestRouter(t *testing.T, payment approrder.PaymentService, stock map[string]int) http.Handler {
	t.Helper()

	inv := sim.NewInventory(0)
	for productID, qty := range stock {
		inv.SetStock(productID, qty)
	}
	if payment == nil {
		payment = sim.NewAuthorizer(staticIDs{}, 0)
	}

	processor := approrder.NewProcessor(
		inv,
		payment,
		sim.NewNotifier(nil),
		dedup.NewMemoryCache(5*time.Minute),
		nil,
		observability.Nop(),
		time.Second,
	)
	return NewHandler(processor, nil, nil).Router()
}

const validBody = `{
	"order_id": "O1",
	"customer_email": "a@b.com",
	"items": [{"product_id": "P1", "quantity": 2}],
	"payment": {"amount": 1999, "currency": "USD", "card_number": "4111111111111111", "card_expiry": "12/30"}
}`

func postOrder(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (msg, timestamp string) {
	t.Helper()
	var body struct {
		Error     string `json:"error"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error, body.Timestamp
}

func TestSubmitOrder_Success(t *testing.T) {
	router := newTestRouter(t, nil, map[string]int{"P1": 10})

	rec := postOrder(router, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		OrderID   string `json:"order_id"`
		Status    string `json:"status"`
		PaymentID string `json:"payment_id"`
		EmailSent bool   `json:"email_sent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "O1", resp.OrderID)
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, "pay-fixed", resp.PaymentID)
	assert.True(t, resp.EmailSent)
}

func TestSubmitOrder_MalformedJSON(t *testing.T) {
	router := newTestRouter(t, nil, map[string]int{"P1": 10})

	rec := postOrder(router, `{"order_id": `)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, timestamp := decodeError(t, rec)
	assert.NotEmpty(t, msg)
	_, err := time.Parse(time.RFC3339, timestamp)
	assert.NoError(t, err)
}

func TestSubmitOrder_EmptyOrderID(t *testing.T) {
	router := newTestRouter(t, nil, map[string]int{"P1": 10})

	rec := postOrder(router, strings.Replace(validBody, `"O1"`, `""`, 1))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeError(t, rec)
	assert.Contains(t, msg, "invalid request")
}

func TestSubmitOrder_InsufficientInventory(t *testing.T) {
	router := newTestRouter(t, nil, map[string]int{"P1": 1})

	rec := postOrder(router, validBody)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeError(t, rec)
	assert.Contains(t, msg, "insufficient inventory")
}

func TestSubmitOrder_DuplicateWithinWindow(t *testing.T) {
	router := newTestRouter(t, nil, map[string]int{"P1": 10})

	first := postOrder(router, validBody)
	require.Equal(t, http.StatusOK, first.Code)

	second := postOrder(router, validBody)
	require.Equal(t, http.StatusConflict, second.Code)
	msg, _ := decodeError(t, second)
	assert.Contains(t, msg, "duplicate")
}

func TestSubmitOrder_PaymentDeclined(t *testing.T) {
	declining := sim.NewAuthorizer(staticIDs{}, 1000)
	router := newTestRouter(t, declining, map[string]int{"P1": 10})

	rec := postOrder(router, validBody)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	msg, _ := decodeError(t, rec)
	assert.Contains(t, msg, "payment declined")
}

func TestSubmitOrder_InternalErrorIsOpaque(t *testing.T) {
	router := newTestRouter(t, boomPayment{}, map[string]int{"P1": 10})

	rec := postOrder(router, validBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeError(t, rec)
	assert.Equal(t, "order: internal error", msg)
	assert.NotContains(t, rec.Body.String(), "exploded")
}

func TestSubmitOrder_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
