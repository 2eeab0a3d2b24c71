package handlers

import (
	"errors"
	"log"

	"lojinha/internal/apperrors"
	"lojinha/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler exposes the checkout and fulfillment flow over HTTP.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/criar-pagamento", h.HandleCreatePayment)
	router.Get("/status-pagamento/:id", h.HandlePaymentStatus)
	router.Get("/link-download/:id", h.HandleDownloadLinks)
	router.Post("/webhook", h.HandleWebhook)
}

// respondError maps service-layer errors onto the HTTP surface with a
// structured {error, details?} body.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		log.Printf("Request %s %s failed: %v", c.Method(), c.Path(), err)
	}
	body := fiber.Map{"error": err.Error()}
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		body["details"] = fiber.Map{validationErr.Field: validationErr.Reason}
	}
	var notApprovedErr *apperrors.NotApprovedError
	if errors.As(err, &notApprovedErr) {
		body["status"] = notApprovedErr.Status
	}
	return c.Status(status).JSON(body)
}

// HandleCreatePayment validates the cart submission and creates a PIX
// payment, answering with the QR payload the front end renders.
func (h *PaymentHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	resp, err := h.service.CreateOrder(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandlePaymentStatus returns the tracked state of a payment, refreshing
// non-terminal records against the gateway.
func (h *PaymentHandler) HandlePaymentStatus(c *fiber.Ctx) error {
	order, err := h.service.GetOrderStatus(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleDownloadLinks releases download references for approved payments
// inside the entitlement window.
func (h *PaymentHandler) HandleDownloadLinks(c *fiber.Ctx) error {
	resp, err := h.service.GetDownloadLinks(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// webhookPayload is the gateway's notification body.
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleWebhook acknowledges the gateway callback immediately. The
// reconciliation work is deferred inside the service; the gateway retries
// callbacks that are not answered quickly, so nothing here may block.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload webhookPayload
	if err := c.BodyParser(&payload); err != nil {
		// Still a 200: the gateway would retry an unparseable payload
		// forever otherwise.
		log.Printf("Error parsing webhook body: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	h.service.HandleNotification(payload.Type, payload.Data.ID)
	return c.SendStatus(fiber.StatusOK)
}
