package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
)

// Price is reference data read by the payment pipeline: charge type family,
// renewal interval and the gateway-side price identifier.
type Price struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID    uuid.UUID           `gorm:"column:organization_id;type:uuid;not null"`
	Type              enums.PriceType     `gorm:"column:type;type:price_type;not null;default:'one_time'"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	RenewInterval     enums.RenewInterval `gorm:"column:renew_interval;type:renew_interval;default:'month'"`
	CancelAfterCycles *int                `gorm:"column:cancel_after_cycles"`
	GatewayPriceID    string              `gorm:"column:gateway_price_id"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OfferItem ties a price into a sellable offer. Its type value drives hybrid
// fulfillment routing.
type OfferItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null"`
	OfferID        uuid.UUID `gorm:"column:offer_id;type:uuid;not null"`
	PriceID        uuid.UUID `gorm:"column:price_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	Type           string    `gorm:"column:type;not null;default:'digital'"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
