package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// Order is the durable record of a completed checkout attempt. At most one
// order exists per (organization, checkout_session) pair, and status never
// leaves completed once set.
type Order struct {
	ID                     uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID         uuid.UUID                `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:ux_orders_org_checkout_session,priority:1"`
	CheckoutSessionID      uuid.UUID                `gorm:"column:checkout_session_id;type:uuid;not null;uniqueIndex:ux_orders_org_checkout_session,priority:2"`
	CustomerID             *uuid.UUID               `gorm:"column:customer_id;type:uuid"`
	Status                 enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency               enums.Currency           `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalAmount            decimal.Decimal          `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	CompletedAt            *time.Time               `gorm:"column:completed_at"`
	FulfillmentMethod      *enums.FulfillmentMethod `gorm:"column:fulfillment_method;type:fulfillment_method"`
	FulfillmentConfig      types.JSONMap            `gorm:"column:fulfillment_config;type:jsonb;serializer:json"`
	FulfillmentNotified    bool                     `gorm:"column:fulfillment_notified;not null;default:false"`
	FulfillmentNotifiedAt  *time.Time               `gorm:"column:fulfillment_notified_at"`
	Items                  []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Organization           *Organization            `gorm:"foreignKey:OrganizationID"`
	Customer               *Customer                `gorm:"foreignKey:CustomerID"`
	CheckoutSession        *CheckoutSession         `gorm:"foreignKey:CheckoutSessionID"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
