package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
)

// OrderCompletedEvent is emitted once a checkout session's payment has been
// reconciled and the order reached completed.
type OrderCompletedEvent struct {
	OrderID           uuid.UUID               `json:"order_id"`
	OrganizationID    uuid.UUID               `json:"organization_id"`
	CheckoutSessionID uuid.UUID               `json:"checkout_session_id"`
	IntentType        enums.IntentType        `json:"intent_type"`
	TotalAmount       string                  `json:"total_amount"`
	Currency          enums.Currency          `json:"currency"`
	FulfillmentMethod enums.FulfillmentMethod `json:"fulfillment_method"`
	CompletedAt       time.Time               `json:"completed_at"`
}

// OrderItemFulfilledEvent surfaces a line item reaching full provisioning.
type OrderItemFulfilledEvent struct {
	OrderItemID    uuid.UUID `json:"order_item_id"`
	OrderID        uuid.UUID `json:"order_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Quantity       int       `json:"quantity"`
	FulfilledAt    time.Time `json:"fulfilled_at"`
}

// ExternalFulfillmentSyncedEvent is emitted when a platform webhook has been
// reconciled into an external fulfillment record.
type ExternalFulfillmentSyncedEvent struct {
	ExternalFulfillmentID uuid.UUID                 `json:"external_fulfillment_id"`
	OrganizationID        uuid.UUID                 `json:"organization_id"`
	Platform              enums.FulfillmentPlatform `json:"platform"`
	ExternalOrderID       string                    `json:"external_order_id"`
	Status                enums.FulfillmentStatus   `json:"status"`
	Created               bool                      `json:"created"`
}
