package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"lojinha/internal/apperrors"
	"lojinha/internal/gateway"
	"lojinha/internal/models"
	"lojinha/internal/repositories"
	"lojinha/pkg/rabbitmq"
	"lojinha/pkg/retry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PaymentGateway is the slice of the gateway client the flow needs.
type PaymentGateway interface {
	CreatePixPayment(ctx context.Context, req gateway.PixPaymentRequest) (*gateway.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
}

// EventPublisher publishes payment lifecycle events. May be backed by
// RabbitMQ or absent entirely (nil), in which case publishing is skipped.
type EventPublisher interface {
	PublishPaymentEvent(event rabbitmq.Event) error
}

const (
	catalogRetryAttempts = 3
	catalogRetryDelay    = 500 * time.Millisecond
)

// PaymentService orchestrates the order/fulfillment flow: cart validation,
// catalog resolution, payment creation, status reconciliation and download
// gating.
type PaymentService struct {
	store       repositories.OrderStore
	productRepo repositories.ProductRepository
	gw          PaymentGateway
	events      EventPublisher
	validate    *validator.Validate

	baseURL        string
	downloadWindow time.Duration
	// notifyDelay spaces the webhook acknowledgement from the follow-up
	// gateway query; the gateway's own record may lag right after it
	// fires the callback. Tests shrink this.
	notifyDelay time.Duration
}

// NewPaymentService creates a new PaymentService. events may be nil.
func NewPaymentService(
	store repositories.OrderStore,
	productRepo repositories.ProductRepository,
	gw PaymentGateway,
	events EventPublisher,
	baseURL string,
	downloadWindow time.Duration,
) *PaymentService {
	return &PaymentService{
		store:          store,
		productRepo:    productRepo,
		gw:             gw,
		events:         events,
		validate:       validator.New(),
		baseURL:        strings.TrimRight(baseURL, "/"),
		downloadWindow: downloadWindow,
		notifyDelay:    time.Second,
	}
}

// CreateOrderRequest is the storefront checkout payload.
type CreateOrderRequest struct {
	Cart         []models.CartItem `json:"carrinho" validate:"required,min=1"`
	CustomerName string            `json:"nomeCliente" validate:"required"`
	Email        string            `json:"email" validate:"required,email"`
	// Total comes from the front end either as a number or as a localized
	// string like "R$ 1.234,56".
	Total interface{} `json:"total" validate:"required"`
}

// CreateOrderResponse mirrors the gateway's immediate answer: everything the
// front end needs to render the PIX QR code.
type CreateOrderResponse struct {
	ID           string               `json:"id"`
	Status       models.PaymentStatus `json:"status"`
	QRCode       string               `json:"qr_code"`
	QRCodeBase64 string               `json:"qr_code_base64"`
	TicketURL    string               `json:"ticket_url"`
}

// DownloadLinksResponse is the payload returned once downloads are released.
type DownloadLinksResponse struct {
	Links        []string `json:"links"`
	Products     []string `json:"products"`
	CustomerName string   `json:"customer_name"`
	Total        float64  `json:"total"`
	// ExpiresIn is the remaining entitlement window, in whole seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// parseTotal accepts the declared total as a number or a pt-BR formatted
// string: the currency symbol is stripped, thousands dots removed and the
// decimal comma replaced before parsing.
func parseTotal(total interface{}) (float64, error) {
	switch v := total.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("deve ser positivo")
		}
		return v, nil
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.ReplaceAll(cleaned, "R$", "")
		cleaned = strings.TrimSpace(cleaned)
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("valor '%s' não é um número válido", v)
		}
		if parsed <= 0 {
			return 0, fmt.Errorf("deve ser positivo")
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("tipo inesperado %T", total)
	}
}

// CreateOrder validates the cart, resolves products against the catalog,
// creates a PIX payment and records the pending order. The stored total is
// the declared total verbatim; it is never recomputed from the items.
func (s *PaymentService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return nil, &apperrors.ValidationError{
				Field:  first.Field(),
				Reason: fmt.Sprintf("failed on the '%s' tag", first.Tag()),
			}
		}
		return nil, &apperrors.ValidationError{Field: "body", Reason: err.Error()}
	}
	for i, item := range req.Cart {
		if item.ProductID == "" {
			return nil, &apperrors.ValidationError{
				Field:  fmt.Sprintf("carrinho[%d].id", i),
				Reason: "identificador do produto ausente",
			}
		}
		if item.Quantity < 1 {
			return nil, &apperrors.ValidationError{
				Field:  fmt.Sprintf("carrinho[%d].quantidade", i),
				Reason: "quantidade deve ser pelo menos 1",
			}
		}
	}

	total, err := parseTotal(req.Total)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "total", Reason: err.Error()}
	}

	items, err := s.resolveItems(ctx, req.Cart)
	if err != nil {
		return nil, err
	}

	payment, err := s.gw.CreatePixPayment(ctx, gateway.PixPaymentRequest{
		Amount:            total,
		Description:       orderDescription(items),
		PayerEmail:        req.Email,
		PayerName:         req.CustomerName,
		NotificationURL:   s.baseURL + "/webhook",
		ExternalReference: uuid.New().String(),
	})
	if err != nil {
		// Nothing is persisted for a payment that was never created.
		return nil, err
	}

	now := time.Now()
	order := models.Order{
		PaymentID:     payment.ID,
		Status:        payment.Status,
		StatusDetail:  payment.StatusDetail,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.Email,
		Total:         total,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Put(order); err != nil {
		return nil, fmt.Errorf("failed to record order %s: %w", payment.ID, err)
	}

	s.publishEvent("payment.created", order)

	return &CreateOrderResponse{
		ID:           payment.ID,
		Status:       payment.Status,
		QRCode:       payment.QRCode,
		QRCodeBase64: payment.QRCodeBase64,
		TicketURL:    payment.TicketURL,
	}, nil
}

// resolveItems looks every cart item up in the catalog. Lookups are retried
// with linear backoff since they are read-only. An item whose id the catalog
// does not know becomes a placeholder (price 0, no download reference); a
// catalog that cannot be reached at all aborts the order.
func (s *PaymentService) resolveItems(ctx context.Context, cart []models.CartItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart))
	for _, cartItem := range cart {
		var product *models.Product
		err := retry.Do(ctx, catalogRetryAttempts, catalogRetryDelay, func() error {
			var lookupErr error
			product, lookupErr = s.productRepo.GetByID(cartItem.ProductID)
			return lookupErr
		})
		if err != nil {
			var catalogErr *apperrors.CatalogError
			if errors.As(err, &catalogErr) {
				return nil, catalogErr
			}
			log.Printf("Product %s not found in catalog, keeping placeholder: %v", cartItem.ProductID, err)
			items = append(items, models.OrderItem{
				ProductID: cartItem.ProductID,
				Name:      cartItem.Name,
				Quantity:  cartItem.Quantity,
				Price:     0,
			})
			continue
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			Name:        product.Name,
			Quantity:    cartItem.Quantity,
			Price:       product.Price,
			DownloadURL: product.DownloadURL,
		})
	}
	return items, nil
}

func orderDescription(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	desc := strings.Join(names, ", ")
	if len(desc) > 250 {
		desc = desc[:250]
	}
	return desc
}

// HandleNotification processes a gateway webhook. It returns immediately so
// the transport layer can acknowledge the callback within the gateway's
// timeout; the actual reconciliation runs in a background goroutine after a
// short delay. Failures in that goroutine are logged only: the 200 has
// already been sent and cannot be taken back.
func (s *PaymentService) HandleNotification(eventType, paymentID string) {
	if eventType != "payment" || paymentID == "" {
		log.Printf("Ignoring webhook notification type=%q id=%q", eventType, paymentID)
		return
	}

	go func() {
		time.Sleep(s.notifyDelay)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Reconcile(ctx, paymentID); err != nil {
			log.Printf("Webhook reconciliation for payment %s failed: %v", paymentID, err)
		}
	}()
}

// SetNotifyDelay overrides the pause between webhook acknowledgement and
// reconciliation. Tests use this to keep the async path fast.
func (s *PaymentService) SetNotifyDelay(d time.Duration) {
	s.notifyDelay = d
}

// Reconcile fetches the authoritative status from the gateway and applies it
// to the local record. Besides the deferred webhook path this can be called
// directly to force a re-sync.
func (s *PaymentService) Reconcile(ctx context.Context, paymentID string) error {
	payment, err := s.gw.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to query gateway: %w", err)
	}

	local, ok, err := s.store.Get(paymentID)
	if err != nil {
		return err
	}
	if !ok {
		// Possibly swept already. The gateway keeps the source of truth,
		// so this is informational, not fatal.
		log.Printf("Webhook for unknown payment %s (gateway status %s)", paymentID, payment.Status)
		return nil
	}

	s.applyStatus(local, payment.Status, payment.StatusDetail)
	return nil
}

// applyStatus funnels every status write through the transition policy.
// Illegal transitions (out of a terminal state into a different one) are
// logged and dropped.
func (s *PaymentService) applyStatus(local *models.Order, status models.PaymentStatus, detail string) {
	if !models.CanTransition(local.Status, status) {
		log.Printf("Dropping illegal status transition %s -> %s for payment %s", local.Status, status, local.PaymentID)
		return
	}
	if err := s.store.UpdateStatus(local.PaymentID, status, detail); err != nil {
		log.Printf("Failed to update status of payment %s: %v", local.PaymentID, err)
		return
	}
	if status == models.StatusApproved && local.Status != models.StatusApproved {
		updated := *local
		updated.Status = status
		s.publishEvent("payment.approved", updated)
	}
}

// GetOrderStatus returns the current view of a payment. Terminal records are
// served from the store; live ones are refreshed against the gateway so
// polling works even when webhook delivery is flaky. Unknown ids fall back
// to a direct gateway query.
func (s *PaymentService) GetOrderStatus(ctx context.Context, paymentID string) (*models.Order, error) {
	local, ok, err := s.store.Get(paymentID)
	if err != nil {
		return nil, err
	}

	if ok && local.Status.IsTerminal() {
		return local, nil
	}

	payment, err := s.gw.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			if ok {
				// Known locally but gone upstream; keep serving the
				// cached record rather than inventing a 404.
				return local, nil
			}
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	if !ok {
		// Synthesize a minimal record so later polls hit the cache.
		now := time.Now()
		order := models.Order{
			PaymentID:    paymentID,
			Status:       payment.Status,
			StatusDetail: payment.StatusDetail,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.Put(order); err != nil {
			return nil, err
		}
		return &order, nil
	}

	s.applyStatus(local, payment.Status, payment.StatusDetail)

	refreshed, _, err := s.store.Get(paymentID)
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// GetDownloadLinks releases the download references of an approved order.
// Access is denied when the payment is not approved, when the entitlement
// window has closed, or when the order has nothing to download.
func (s *PaymentService) GetDownloadLinks(ctx context.Context, paymentID string) (*DownloadLinksResponse, error) {
	order, err := s.GetOrderStatus(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusApproved {
		return nil, &apperrors.NotApprovedError{Status: order.Status}
	}
	now := time.Now()
	if order.EntitlementExpired(s.downloadWindow, now) {
		return nil, apperrors.ErrLinksExpired
	}

	downloadable := order.DownloadableItems()
	if len(downloadable) == 0 {
		return nil, apperrors.ErrNoDownloadLinks
	}

	links := make([]string, 0, len(downloadable))
	products := make([]string, 0, len(downloadable))
	for _, item := range downloadable {
		links = append(links, item.DownloadURL)
		products = append(products, item.Name)
	}

	remaining := s.downloadWindow - now.Sub(order.CreatedAt)
	return &DownloadLinksResponse{
		Links:        links,
		Products:     products,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		ExpiresIn:    int64(remaining.Seconds()),
	}, nil
}

// SweepExpired removes tracking records older than maxAge and logs the
// result. Called from the periodic sweeper goroutine.
func (s *PaymentService) SweepExpired(maxAge time.Duration) {
	removed, err := s.store.SweepExpired(maxAge)
	if err != nil {
		log.Printf("Order sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Order sweep removed %d expired record(s)", removed)
	}
}

func (s *PaymentService) publishEvent(kind string, order models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishPaymentEvent(rabbitmq.Event{
		Kind:          kind,
		PaymentID:     order.PaymentID,
		Status:        string(order.Status),
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
	})
	if err != nil {
		log.Printf("Warning: failed to publish %s event for payment %s: %v", kind, order.PaymentID, err)
	}
}
