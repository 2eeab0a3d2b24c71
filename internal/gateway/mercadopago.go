package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lojinha/internal/apperrors"
	"lojinha/internal/models"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://api.mercadopago.com"

// Client talks to the Mercado Pago payments API. It is the only component
// that knows the gateway's wire format; everything else works with
// models.PaymentStatus and the Payment struct below.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a gateway client. baseURL is overridable for tests;
// pass "" to use the production API.
func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// PixPaymentRequest carries everything needed to create a PIX payment.
type PixPaymentRequest struct {
	Amount            float64
	Description       string
	PayerEmail        string
	PayerName         string
	NotificationURL   string
	ExternalReference string
}

// Payment is the gateway's view of a payment, reduced to the fields the
// flow cares about.
type Payment struct {
	ID           string
	Status       models.PaymentStatus
	StatusDetail string
	QRCode       string
	QRCodeBase64 string
	TicketURL    string
}

type paymentPayload struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreatePixPayment creates a PIX payment. This call is never retried: a
// repeated create risks charging the customer twice. The X-Idempotency-Key
// header lets the gateway deduplicate on its side if the request is resent
// by intermediaries.
func (c *Client) CreatePixPayment(ctx context.Context, req PixPaymentRequest) (*Payment, error) {
	body := map[string]interface{}{
		"transaction_amount": req.Amount,
		"description":        req.Description,
		"payment_method_id":  "pix",
		"payer": map[string]string{
			"email":      req.PayerEmail,
			"first_name": req.PayerName,
		},
		"notification_url":   req.NotificationURL,
		"external_reference": req.ExternalReference,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("X-Idempotency-Key", uuid.New().String())

	return c.doPaymentRequest(httpReq)
}

// GetPayment fetches the authoritative current state of a payment.
// A gateway 404 comes back as apperrors.ErrOrderNotFound.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment lookup request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	return c.doPaymentRequest(httpReq)
}

func (c *Client) doPaymentRequest(req *http.Request) (*Payment, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.GatewayError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.GatewayError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr errorPayload
		message := string(raw)
		if err := json.Unmarshal(raw, &gwErr); err == nil && gwErr.Message != "" {
			message = gwErr.Message
		}
		return nil, &apperrors.GatewayError{StatusCode: resp.StatusCode, Message: message}
	}

	var payload paymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &apperrors.GatewayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("resposta inválida do gateway: %v", err)}
	}

	return &Payment{
		ID:           payload.ID.String(),
		Status:       models.ParsePaymentStatus(payload.Status),
		StatusDetail: payload.StatusDetail,
		QRCode:       payload.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: payload.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:    payload.PointOfInteraction.TransactionData.TicketURL,
	}, nil
}
