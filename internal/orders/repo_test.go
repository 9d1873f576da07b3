package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  checkout_session_id TEXT NOT NULL,
  customer_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'USD',
  total_amount NUMERIC NOT NULL DEFAULT 0,
  completed_at DATETIME,
  fulfillment_method TEXT,
  fulfillment_config TEXT,
  fulfillment_notified INTEGER NOT NULL DEFAULT 0,
  fulfillment_notified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (organization_id, checkout_session_id)
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  price_id TEXT NOT NULL,
  offer_item_id TEXT,
  quantity INTEGER NOT NULL DEFAULT 1,
  quantity_fulfilled INTEGER NOT NULL DEFAULT 0,
  quantity_remaining INTEGER NOT NULL DEFAULT 0,
  fulfillment_status TEXT NOT NULL DEFAULT 'pending',
  delivery_method TEXT,
  fulfillment_data TEXT,
  delivery_assets TEXT,
  tracking_number TEXT,
  tracking_url TEXT,
  expected_delivery_date DATETIME,
  delivered_at DATETIME,
  fulfilled_at DATETIME,
  fulfilled_by TEXT,
  unprovisionable_reason TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func TestInsertOrderIgnoreConflict(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	sessionID := uuid.New()

	first := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		CheckoutSessionID: sessionID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
	}
	inserted, err := repo.InsertOrderIgnoreConflict(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)

	second := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		CheckoutSessionID: sessionID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
	}
	inserted, err = repo.InsertOrderIgnoreConflict(ctx, second)
	require.NoError(t, err)
	require.False(t, inserted)

	found, err := repo.FindBySessionKey(ctx, orgID, sessionID)
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)
}

func TestUpdateOrderFields(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    uuid.New(),
		CheckoutSessionID: uuid.New(),
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
	}
	inserted, err := repo.InsertOrderIgnoreConflict(ctx, order)
	require.NoError(t, err)
	require.True(t, inserted)

	require.NoError(t, repo.UpdateOrder(ctx, order.ID, map[string]any{
		"status": enums.OrderStatusCompleted,
	}))

	found, err := repo.FindBySessionKey(ctx, order.OrganizationID, order.CheckoutSessionID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCompleted, found.Status)
}
