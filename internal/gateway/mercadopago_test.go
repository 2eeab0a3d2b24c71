package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lojinha/internal/apperrors"
	"lojinha/internal/gateway"
	"lojinha/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePixPayment(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 123456789,
			"status": "pending",
			"status_detail": "pending_waiting_transfer",
			"point_of_interaction": {
				"transaction_data": {
					"qr_code": "00020126PIXDATA",
					"qr_code_base64": "aW1hZ2U=",
					"ticket_url": "https://mp.example/ticket/123"
				}
			}
		}`))
	}))
	defer server.Close()

	client := gateway.NewClient(server.URL, "test-token")
	payment, err := client.CreatePixPayment(context.Background(), gateway.PixPaymentRequest{
		Amount:            49.90,
		Description:       "Book",
		PayerEmail:        "a@b.com",
		PayerName:         "Ana",
		NotificationURL:   "https://loja.example/webhook",
		ExternalReference: "ref-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "123456789", payment.ID)
	assert.Equal(t, models.StatusPending, payment.Status)
	assert.Equal(t, "00020126PIXDATA", payment.QRCode)
	assert.Equal(t, "aW1hZ2U=", payment.QRCodeBase64)
	assert.Equal(t, "https://mp.example/ticket/123", payment.TicketURL)

	assert.Equal(t, 49.90, gotBody["transaction_amount"])
	assert.Equal(t, "pix", gotBody["payment_method_id"])
	payer := gotBody["payer"].(map[string]interface{})
	assert.Equal(t, "a@b.com", payer["email"])
}

func TestGetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 123, "status": "approved", "status_detail": "accredited"}`))
	}))
	defer server.Close()

	client := gateway.NewClient(server.URL, "test-token")
	payment, err := client.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, payment.Status)
	assert.Equal(t, "accredited", payment.StatusDetail)
}

func TestGetPayment_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Payment not found","error":"not_found"}`))
	}))
	defer server.Close()

	client := gateway.NewClient(server.URL, "test-token")
	_, err := client.GetPayment(context.Background(), "999")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestCreatePixPayment_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"transaction_amount must be positive","error":"bad_request"}`))
	}))
	defer server.Close()

	client := gateway.NewClient(server.URL, "test-token")
	_, err := client.CreatePixPayment(context.Background(), gateway.PixPaymentRequest{Amount: -1})
	var gwErr *apperrors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Contains(t, gwErr.Message, "transaction_amount must be positive")
}

func TestGetPayment_UnknownStatusFallsBackToPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1, "status": "charged_back"}`))
	}))
	defer server.Close()

	client := gateway.NewClient(server.URL, "test-token")
	payment, err := client.GetPayment(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, payment.Status)
}
