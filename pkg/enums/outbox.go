package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder               OutboxAggregateType = "order"
	AggregateOrderItem           OutboxAggregateType = "order_item"
	AggregateExternalFulfillment OutboxAggregateType = "external_fulfillment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateOrderItem,
	AggregateExternalFulfillment,
}

// String implements fmt.Stringer.
func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, known := range validAggregateTypes {
		if known == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	parsed := OutboxAggregateType(value)
	if !parsed.IsValid() {
		return "", fmt.Errorf("invalid aggregate type %q", value)
	}
	return parsed, nil
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCompleted            OutboxEventType = "order_completed"
	EventOrderItemFulfilled        OutboxEventType = "order_item_fulfilled"
	EventExternalFulfillmentSynced OutboxEventType = "external_fulfillment_synced"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCompleted,
	EventOrderItemFulfilled,
	EventExternalFulfillmentSynced,
}

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, known := range validOutboxEventTypes {
		if known == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	parsed := OutboxEventType(value)
	if !parsed.IsValid() {
		return "", fmt.Errorf("invalid event type %q", value)
	}
	return parsed, nil
}
