package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// OrderItem is one purchased line, tracked independently for fulfillment.
// quantity_fulfilled never exceeds quantity; quantity_remaining is the
// derived complement. fulfillment_data is merged key-wise, never replaced.
type OrderItem struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID        uuid.UUID               `gorm:"column:organization_id;type:uuid;not null"`
	OrderID               uuid.UUID               `gorm:"column:order_id;type:uuid;not null"`
	PriceID               uuid.UUID               `gorm:"column:price_id;type:uuid;not null"`
	OfferItemID           *uuid.UUID              `gorm:"column:offer_item_id;type:uuid"`
	Quantity              int                     `gorm:"column:quantity;not null;default:1"`
	QuantityFulfilled     int                     `gorm:"column:quantity_fulfilled;not null;default:0"`
	QuantityRemaining     int                     `gorm:"column:quantity_remaining;not null;default:0"`
	DeliveryMethod        *enums.DeliveryMethod   `gorm:"column:delivery_method;type:delivery_method"`
	FulfillmentStatus     enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:fulfillment_status;not null;default:'pending'"`
	FulfillmentNotes      *string                 `gorm:"column:fulfillment_notes"`
	FulfillmentData       types.JSONMap           `gorm:"column:fulfillment_data;type:jsonb;serializer:json"`
	TrackingNumber        *string                 `gorm:"column:tracking_number"`
	TrackingURL           *string                 `gorm:"column:tracking_url"`
	UnprovisionableReason *string                 `gorm:"column:unprovisionable_reason"`
	DeliveryAssets        types.JSONMap           `gorm:"column:delivery_assets;type:jsonb;serializer:json"`
	ExpectedDeliveryDate  *time.Time              `gorm:"column:expected_delivery_date"`
	DeliveredAt           *time.Time              `gorm:"column:delivered_at"`
	FulfilledAt           *time.Time              `gorm:"column:fulfilled_at"`
	FulfilledBy           *uuid.UUID              `gorm:"column:fulfilled_by;type:uuid"`
	Price                 *Price                  `gorm:"foreignKey:PriceID"`
	OfferItem             *OfferItem              `gorm:"foreignKey:OfferItemID"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
