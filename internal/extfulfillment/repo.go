package extfulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
)

// Repository persists external fulfillment records keyed by
// (organization_id, platform, external_order_id).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Exists(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (bool, error)
	Upsert(ctx context.Context, record *models.ExternalFulfillment) (created bool, err error)
	FindByNaturalKey(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (*models.ExternalFulfillment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an external fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Exists(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExternalFulfillment{}).
		Where("organization_id = ? AND platform = ? AND external_order_id = ?", organizationID, platform, externalOrderID).
		Count(&count).Error
	return count > 0, err
}

// Upsert inserts the record or, on natural-key conflict, updates it in place.
// The returned flag reports whether this call created the row: the insert
// runs with ON CONFLICT DO NOTHING so the rows-affected count answers that
// exactly, even when two deliveries of the same order race. Plain fields
// take the incoming value; tracking fields and external timestamps only move
// when the incoming value is non-null, so a later webhook that omits them
// does not erase what an earlier delivery recorded.
func (r *repository) Upsert(ctx context.Context, record *models.ExternalFulfillment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "organization_id"},
				{Name: "platform"},
				{Name: "external_order_id"},
			},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.ExternalFulfillment{}).
		Where("organization_id = ? AND platform = ? AND external_order_id = ?",
			record.OrganizationID, record.Platform, record.ExternalOrderID).
		Updates(map[string]any{
			"status":                  record.Status,
			"external_fulfillment_id": gorm.Expr("COALESCE(?, external_fulfillment_id)", record.ExternalFulfillmentID),
			"order_data":              record.OrderData,
			"fulfillment_data":        record.FulfillmentData,
			"customer_data":           record.CustomerData,
			"items_data":              record.ItemsData,
			"tracking_number":         gorm.Expr("COALESCE(?, tracking_number)", record.TrackingNumber),
			"tracking_url":            gorm.Expr("COALESCE(?, tracking_url)", record.TrackingURL),
			"external_ordered_at":     gorm.Expr("COALESCE(?, external_ordered_at)", record.ExternalOrderedAt),
			"external_fulfilled_at":   gorm.Expr("COALESCE(?, external_fulfilled_at)", record.ExternalFulfilledAt),
			"external_delivered_at":   gorm.Expr("COALESCE(?, external_delivered_at)", record.ExternalDeliveredAt),
			"webhook_signature":       record.WebhookSignature,
			"webhook_headers":         record.WebhookHeaders,
			"updated_at":              gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
	return false, err
}

func (r *repository) FindByNaturalKey(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (*models.ExternalFulfillment, error) {
	var record models.ExternalFulfillment
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND platform = ? AND external_order_id = ?", organizationID, platform, externalOrderID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
