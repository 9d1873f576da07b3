package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// CheckoutSession is the transient record of a hosted purchase attempt,
// closed on success or failure.
type CheckoutSession struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID                   `gorm:"column:organization_id;type:uuid;not null"`
	CustomerID     *uuid.UUID                  `gorm:"column:customer_id;type:uuid"`
	Status         enums.CheckoutSessionStatus `gorm:"column:status;type:checkout_session_status;not null;default:'open'"`
	IntentType     enums.IntentType            `gorm:"column:intent_type;type:intent_type;not null;default:'payment'"`
	IntentID       string                      `gorm:"column:intent_id"`
	Currency       enums.Currency              `gorm:"column:currency;type:text;not null;default:'USD'"`
	Discounts      types.DiscountList          `gorm:"column:discounts;type:jsonb;serializer:json"`
	LineItems      []CheckoutLineItem          `gorm:"foreignKey:CheckoutSessionID;constraint:OnDelete:CASCADE"`
	Customer       *Customer                   `gorm:"foreignKey:CustomerID"`
	ExpiresAt      *time.Time                  `gorm:"column:expires_at"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

// CheckoutLineItem is one priced entry inside a checkout session.
type CheckoutLineItem struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutSessionID uuid.UUID  `gorm:"column:checkout_session_id;type:uuid;not null"`
	OrganizationID    uuid.UUID  `gorm:"column:organization_id;type:uuid;not null"`
	PriceID           uuid.UUID  `gorm:"column:price_id;type:uuid;not null"`
	OfferItemID       *uuid.UUID `gorm:"column:offer_item_id;type:uuid"`
	Quantity          int        `gorm:"column:quantity;not null;default:1"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
}
