package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// ExternalFulfillment canonicalizes order/fulfillment state reported by a
// third-party sales platform. One row exists per
// (organization, platform, external_order_id); webhook redelivery updates in
// place.
type ExternalFulfillment struct {
	ID                    uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID        uuid.UUID                 `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:ux_external_fulfillments_natural_key,priority:1"`
	Platform              enums.FulfillmentPlatform `gorm:"column:platform;type:fulfillment_platform;not null;uniqueIndex:ux_external_fulfillments_natural_key,priority:2"`
	ExternalOrderID       string                    `gorm:"column:external_order_id;not null;uniqueIndex:ux_external_fulfillments_natural_key,priority:3"`
	ExternalFulfillmentID *string                   `gorm:"column:external_fulfillment_id"`
	Status                enums.FulfillmentStatus   `gorm:"column:status;type:fulfillment_status;not null;default:'pending'"`
	OrderData             types.JSONMap             `gorm:"column:order_data;type:jsonb;serializer:json"`
	FulfillmentData       types.JSONMap             `gorm:"column:fulfillment_data;type:jsonb;serializer:json"`
	CustomerData          types.JSONMap             `gorm:"column:customer_data;type:jsonb;serializer:json"`
	ItemsData             types.JSONMap             `gorm:"column:items_data;type:jsonb;serializer:json"`
	TrackingNumber        *string                   `gorm:"column:tracking_number"`
	TrackingURL           *string                   `gorm:"column:tracking_url"`
	ExternalOrderedAt     *time.Time                `gorm:"column:external_ordered_at"`
	ExternalFulfilledAt   *time.Time                `gorm:"column:external_fulfilled_at"`
	ExternalDeliveredAt   *time.Time                `gorm:"column:external_delivered_at"`
	WebhookSignature      *string                   `gorm:"column:webhook_signature"`
	WebhookHeaders        types.JSONMap             `gorm:"column:webhook_headers;type:jsonb;serializer:json"`
	Notes                 *string                   `gorm:"column:notes"`
	CreatedAt             time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
