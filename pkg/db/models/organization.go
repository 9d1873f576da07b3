package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// Organization is the selling tenant. The fulfillment fields are owned by
// account settings; the order pipeline only reads them.
type Organization struct {
	ID                           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                         string                  `gorm:"column:name;not null"`
	AutoFulfillOrders            bool                    `gorm:"column:auto_fulfill_orders;not null;default:false"`
	FulfillmentMethod            enums.FulfillmentMethod `gorm:"column:fulfillment_method;type:fulfillment_method;not null;default:'manual'"`
	FulfillmentConfig            types.JSONMap           `gorm:"column:fulfillment_config;type:jsonb;serializer:json"`
	DefaultDeliveryMethod        enums.DeliveryMethod    `gorm:"column:default_delivery_method;type:delivery_method;not null;default:'instant_access'"`
	FulfillmentNotificationEmail *string                 `gorm:"column:fulfillment_notification_email"`
	Users                        []User                  `gorm:"foreignKey:OrganizationID"`
	CreatedAt                    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// AutoFulfillItemTypes reads the hybrid routing list out of the fulfillment
// config. Missing or malformed config yields an empty list.
func (o *Organization) AutoFulfillItemTypes() []string {
	if o == nil || o.FulfillmentConfig == nil {
		return nil
	}
	raw, ok := o.FulfillmentConfig["auto_fulfill_item_types"]
	if !ok {
		return nil
	}
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
