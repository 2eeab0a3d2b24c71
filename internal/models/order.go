package models

import (
	"encoding/json"
	"time"
)

// PaymentStatus mirrors the payment gateway's status vocabulary.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusInProcess PaymentStatus = "in_process"
	StatusApproved  PaymentStatus = "approved"
	StatusRejected  PaymentStatus = "rejected"
	StatusCancelled PaymentStatus = "cancelled"
	StatusNotFound  PaymentStatus = "not_found"
)

// ParsePaymentStatus maps a gateway status string into the closed enum.
// Unknown strings fall back to pending, since the gateway may grow new
// intermediate states and treating them as terminal would be worse.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case StatusPending, StatusInProcess, StatusApproved, StatusRejected, StatusCancelled, StatusNotFound:
		return PaymentStatus(s)
	default:
		return StatusPending
	}
}

// IsTerminal reports whether no further gateway-driven change is expected.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// CanTransition is the single place that decides whether a status change is
// legal. Re-asserting the current status is always allowed (webhook and poll
// may race and both write the same value). Terminal states never move to a
// different status: a late conflicting gateway report is logged by the caller
// and dropped.
func CanTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return !from.IsTerminal()
}

// CartItem is the canonical shape of one cart entry after boundary
// normalization. It exists only for the duration of one request.
type CartItem struct {
	ProductID string  `json:"id"`
	Name      string  `json:"nome"`
	Price     float64 `json:"preco,omitempty"`
	Quantity  int     `json:"quantidade"`
}

// UnmarshalJSON normalizes the cart item shapes front ends send: the id
// directly on the item, the product nested under "produto", or a bare id
// string. Whatever arrives, the rest of the flow only ever sees this one
// canonical struct. A missing quantity defaults to 1.
func (c *CartItem) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*c = CartItem{ProductID: id, Quantity: 1}
		return nil
	}

	var raw struct {
		ID       string  `json:"id"`
		Name     string  `json:"nome"`
		Price    float64 `json:"preco"`
		Quantity int     `json:"quantidade"`
		Product  *struct {
			ID    string  `json:"id"`
			Name  string  `json:"nome"`
			Price float64 `json:"preco"`
		} `json:"produto"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item := CartItem{
		ProductID: raw.ID,
		Name:      raw.Name,
		Price:     raw.Price,
		Quantity:  raw.Quantity,
	}
	if raw.Product != nil {
		if item.ProductID == "" {
			item.ProductID = raw.Product.ID
		}
		if item.Name == "" {
			item.Name = raw.Product.Name
		}
		if item.Price == 0 {
			item.Price = raw.Product.Price
		}
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	*c = item
	return nil
}

// OrderItem is a line item resolved against the catalog at order time.
// Unresolvable products are kept as placeholders (price 0, no download
// reference) so one bad id does not block payment for the rest.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"nome"`
	Quantity    int     `json:"quantidade"`
	Price       float64 `json:"preco"` // Price at the time of order
	DownloadURL string  `json:"link_download,omitempty"`
}

// Order is the payment tracking record, keyed by the gateway-assigned
// payment id. Total is the amount submitted to the gateway; it is never
// recomputed from the items after creation.
type Order struct {
	PaymentID     string        `json:"payment_id"`
	Status        PaymentStatus `json:"status"`
	StatusDetail  string        `json:"status_detail,omitempty"`
	CustomerName  string        `json:"nome_cliente"`
	CustomerEmail string        `json:"email"`
	Total         float64       `json:"total"`
	Items         []OrderItem   `json:"itens"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DownloadableItems returns the line items carrying a download reference.
func (o *Order) DownloadableItems() []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.DownloadURL != "" {
			items = append(items, item)
		}
	}
	return items
}

// EntitlementExpired reports whether the download access window has closed.
// The window is measured from order creation regardless of when the payment
// was approved.
func (o *Order) EntitlementExpired(window time.Duration, now time.Time) bool {
	return now.Sub(o.CreatedAt) > window
}
