package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
)

// User is a member of an organization's back office.
type User struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null"`
	Email          string           `gorm:"column:email;not null"`
	Name           string           `gorm:"column:name;not null"`
	Role           enums.MemberRole `gorm:"column:role;type:member_role;not null;default:'member'"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Customer is the buying party resolved during checkout.
type Customer struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID    uuid.UUID `gorm:"column:organization_id;type:uuid;not null"`
	Email             string    `gorm:"column:email;not null"`
	Name              string    `gorm:"column:name"`
	GatewayCustomerID string    `gorm:"column:gateway_customer_id"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
