package extfulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

func setupExtTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS external_fulfillments (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  platform TEXT NOT NULL,
  external_order_id TEXT NOT NULL,
  external_fulfillment_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  order_data TEXT,
  fulfillment_data TEXT,
  customer_data TEXT,
  items_data TEXT,
  tracking_number TEXT,
  tracking_url TEXT,
  external_ordered_at DATETIME,
  external_fulfilled_at DATETIME,
  external_delivered_at DATETIME,
  webhook_signature TEXT,
  webhook_headers TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (organization_id, platform, external_order_id)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestUpsertCreatesThenUpdatesInPlace(t *testing.T) {
	db := setupExtTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	tracking := "1Z2345"

	first := &models.ExternalFulfillment{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Platform:        enums.PlatformShopify,
		ExternalOrderID: "450789469",
		Status:          enums.FulfillmentStatusProcessing,
		TrackingNumber:  &tracking,
		OrderData:       types.JSONMap{"total_price": "49.99"},
	}
	created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	require.True(t, created, "first delivery must report created")

	exists, err := repo.Exists(ctx, orgID, enums.PlatformShopify, "450789469")
	require.NoError(t, err)
	require.True(t, exists)

	// redelivery with a new status but no tracking
	second := &models.ExternalFulfillment{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Platform:        enums.PlatformShopify,
		ExternalOrderID: "450789469",
		Status:          enums.FulfillmentStatusFulfilled,
		OrderData:       types.JSONMap{"total_price": "49.99", "financial_status": "paid"},
	}
	created, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	require.False(t, created, "redelivery must not report created")

	stored, err := repo.FindByNaturalKey(ctx, orgID, enums.PlatformShopify, "450789469")
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.Equal(t, enums.FulfillmentStatusFulfilled, stored.Status)
	require.NotNil(t, stored.TrackingNumber)
	require.Equal(t, tracking, *stored.TrackingNumber)
	require.Equal(t, "paid", stored.OrderData["financial_status"])

	var count int64
	require.NoError(t, db.Model(&models.ExternalFulfillment{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpsertSeparateNaturalKeys(t *testing.T) {
	db := setupExtTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orgID := uuid.New()
	for _, externalID := range []string{"order-1", "order-2"} {
		record := &models.ExternalFulfillment{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			Platform:        enums.PlatformCustom,
			ExternalOrderID: externalID,
			Status:          enums.FulfillmentStatusPending,
		}
		created, err := repo.Upsert(ctx, record)
		require.NoError(t, err)
		require.True(t, created)
	}

	exists, err := repo.Exists(ctx, orgID, enums.PlatformCustom, "order-2")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.Exists(ctx, orgID, enums.PlatformEtsy, "order-1")
	require.NoError(t, err)
	require.False(t, exists)
}
