package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"lojinha/internal/models"

	"gorm.io/gorm"
)

// OrderRow is the database row backing GORMOrderStore. Line items are
// serialized to a JSON column: they are written once at creation and only
// ever read back whole, so a join table would be pure overhead.
type OrderRow struct {
	PaymentID     string `gorm:"primaryKey;type:varchar(64)"`
	Status        string `gorm:"type:varchar(20);index"`
	StatusDetail  string `gorm:"type:varchar(255)"`
	CustomerName  string `gorm:"type:varchar(100)"`
	CustomerEmail string `gorm:"type:varchar(255)"`
	Total         float64
	ItemsJSON     string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// TableName keeps the table name stable across GORM naming strategies.
func (OrderRow) TableName() string { return "pedidos" }

// GORMOrderStore is the durable OrderStore variant. With durable records the
// sweep is a retention policy rather than a memory bound, but the contract
// is the same.
type GORMOrderStore struct {
	db *gorm.DB
}

// NewGORMOrderStore creates a new instance of GORMOrderStore.
func NewGORMOrderStore(db *gorm.DB) *GORMOrderStore {
	return &GORMOrderStore{db: db}
}

func toRow(order models.Order) (OrderRow, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return OrderRow{}, fmt.Errorf("failed to marshal order items: %w", err)
	}
	return OrderRow{
		PaymentID:     order.PaymentID,
		Status:        string(order.Status),
		StatusDetail:  order.StatusDetail,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		ItemsJSON:     string(items),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

func (row OrderRow) toOrder() (models.Order, error) {
	var items []models.OrderItem
	if row.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(row.ItemsJSON), &items); err != nil {
			return models.Order{}, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
	}
	return models.Order{
		PaymentID:     row.PaymentID,
		Status:        models.PaymentStatus(row.Status),
		StatusDetail:  row.StatusDetail,
		CustomerName:  row.CustomerName,
		CustomerEmail: row.CustomerEmail,
		Total:         row.Total,
		Items:         items,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// Put inserts or overwrites the record for order.PaymentID.
func (s *GORMOrderStore) Put(order models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()

	row, err := toRow(order)
	if err != nil {
		return err
	}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.PaymentID, err)
	}
	return nil
}

// Get returns the record for paymentID, or ok=false if it is unknown.
func (s *GORMOrderStore) Get(paymentID string) (*models.Order, bool, error) {
	var row OrderRow
	if err := s.db.First(&row, "payment_id = ?", paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get order %s: %w", paymentID, err)
	}
	order, err := row.toOrder()
	if err != nil {
		return nil, false, err
	}
	return &order, true, nil
}

// UpdateStatus overwrites status and detail. Absent keys are silently
// skipped, matching the in-memory behavior.
func (s *GORMOrderStore) UpdateStatus(paymentID string, status models.PaymentStatus, detail string) error {
	err := s.db.Model(&OrderRow{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":        string(status),
			"status_detail": detail,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update status of order %s: %w", paymentID, err)
	}
	return nil
}

// SweepExpired hard-deletes every record created before now-maxAge.
func (s *GORMOrderStore) SweepExpired(maxAge time.Duration) (int, error) {
	res := s.db.Where("created_at < ?", time.Now().Add(-maxAge)).Delete(&OrderRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired orders: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
