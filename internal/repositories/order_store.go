package repositories

import (
	"time"

	"lojinha/internal/models"
)

// OrderStore is the payment tracking store, keyed by the gateway-assigned
// payment id.
//
// Get reports a missing key through the bool, not an error: an unknown
// payment is a normal outcome (a webhook may refer to a record the sweep
// already removed). UpdateStatus is a no-op when the key is absent for the
// same reason. Status transition policy lives in models.CanTransition and is
// the caller's responsibility; the store just writes what it is told.
type OrderStore interface {
	Put(order models.Order) error
	Get(paymentID string) (*models.Order, bool, error)
	UpdateStatus(paymentID string, status models.PaymentStatus, detail string) error
	// SweepExpired permanently removes every record older than maxAge,
	// whatever its status, and returns how many were removed.
	SweepExpired(maxAge time.Duration) (int, error)
}
