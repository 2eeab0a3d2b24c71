package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"lojinha/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentStatus(t *testing.T) {
	assert.Equal(t, models.StatusApproved, models.ParsePaymentStatus("approved"))
	assert.Equal(t, models.StatusInProcess, models.ParsePaymentStatus("in_process"))
	// Unknown gateway statuses degrade to pending.
	assert.Equal(t, models.StatusPending, models.ParsePaymentStatus("charged_back"))
	assert.Equal(t, models.StatusPending, models.ParsePaymentStatus(""))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.PaymentStatus
		allowed  bool
	}{
		{models.StatusPending, models.StatusApproved, true},
		{models.StatusPending, models.StatusRejected, true},
		{models.StatusPending, models.StatusInProcess, true},
		{models.StatusInProcess, models.StatusPending, true}, // gateway oscillation
		{models.StatusInProcess, models.StatusCancelled, true},
		{models.StatusApproved, models.StatusApproved, true}, // idempotent re-assert
		{models.StatusApproved, models.StatusRejected, false},
		{models.StatusRejected, models.StatusPending, false},
		{models.StatusCancelled, models.StatusApproved, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, models.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCartItemUnmarshal_FlatShape(t *testing.T) {
	var item models.CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","nome":"Book","preco":49.9,"quantidade":2}`), &item))
	assert.Equal(t, models.CartItem{ProductID: "p1", Name: "Book", Price: 49.9, Quantity: 2}, item)
}

func TestCartItemUnmarshal_NestedProductShape(t *testing.T) {
	var item models.CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"produto":{"id":"p1","nome":"Book","preco":49.9},"quantidade":3}`), &item))
	assert.Equal(t, models.CartItem{ProductID: "p1", Name: "Book", Price: 49.9, Quantity: 3}, item)
}

func TestCartItemUnmarshal_BareIDString(t *testing.T) {
	var item models.CartItem
	require.NoError(t, json.Unmarshal([]byte(`"p1"`), &item))
	assert.Equal(t, models.CartItem{ProductID: "p1", Quantity: 1}, item)
}

func TestCartItemUnmarshal_MissingQuantityDefaultsToOne(t *testing.T) {
	var item models.CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1"}`), &item))
	assert.Equal(t, 1, item.Quantity)
}

func TestOrderDownloadableItems(t *testing.T) {
	order := models.Order{Items: []models.OrderItem{
		{ProductID: "p1", DownloadURL: "https://cdn.example/a.pdf"},
		{ProductID: "typo"},
		{ProductID: "p2", DownloadURL: "https://cdn.example/b.zip"},
	}}
	items := order.DownloadableItems()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "p2", items[1].ProductID)
}

func TestOrderEntitlementExpired(t *testing.T) {
	const window = 24 * time.Hour
	now := time.Now()

	fresh := models.Order{CreatedAt: now.Add(-window + time.Second)}
	assert.False(t, fresh.EntitlementExpired(window, now))

	stale := models.Order{CreatedAt: now.Add(-window - time.Second)}
	assert.True(t, stale.EntitlementExpired(window, now))
}
