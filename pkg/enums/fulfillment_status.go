package enums

import (
	"fmt"
	"strings"
)

// FulfillmentStatus tracks provisioning progress for an order item. The same
// enum canonicalizes statuses reported by external platforms.
type FulfillmentStatus string

const (
	FulfillmentStatusPending            FulfillmentStatus = "pending"
	FulfillmentStatusProcessing         FulfillmentStatus = "processing"
	FulfillmentStatusPartiallyFulfilled FulfillmentStatus = "partially_fulfilled"
	FulfillmentStatusFulfilled          FulfillmentStatus = "fulfilled"
	FulfillmentStatusCancelled          FulfillmentStatus = "cancelled"
	FulfillmentStatusFailed             FulfillmentStatus = "failed"
	FulfillmentStatusOnHold             FulfillmentStatus = "on_hold"
	FulfillmentStatusUnprovisionable    FulfillmentStatus = "unprovisionable"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusProcessing,
	FulfillmentStatusPartiallyFulfilled,
	FulfillmentStatusFulfilled,
	FulfillmentStatusCancelled,
	FulfillmentStatusFailed,
	FulfillmentStatusOnHold,
	FulfillmentStatusUnprovisionable,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminalFulfilled reports whether the status stamps fulfilled_at.
func (f FulfillmentStatus) IsTerminalFulfilled() bool {
	return f == FulfillmentStatusFulfilled || f == FulfillmentStatusPartiallyFulfilled
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}

// CanonicalFulfillmentStatus maps heterogeneous platform status strings onto
// the canonical enum. Unknown values fall back to pending.
func CanonicalFulfillmentStatus(raw string) FulfillmentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fulfilled", "completed", "shipped", "delivered":
		return FulfillmentStatusFulfilled
	case "processing", "in_transit", "pending_fulfillment":
		return FulfillmentStatusProcessing
	case "partially_fulfilled", "partial":
		return FulfillmentStatusPartiallyFulfilled
	case "cancelled", "canceled":
		return FulfillmentStatusCancelled
	case "failed", "error":
		return FulfillmentStatusFailed
	case "on_hold", "hold":
		return FulfillmentStatusOnHold
	default:
		return FulfillmentStatusPending
	}
}
