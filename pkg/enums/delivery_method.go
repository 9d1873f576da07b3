package enums

import (
	"fmt"
	"strings"
)

// DeliveryMethod describes how a purchased item reaches the customer.
type DeliveryMethod string

const (
	DeliveryMethodInstantAccess DeliveryMethod = "instant_access"
	DeliveryMethodEmailDelivery DeliveryMethod = "email_delivery"
	DeliveryMethodShipping      DeliveryMethod = "shipping"
	DeliveryMethodPickup        DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodInstantAccess,
	DeliveryMethodEmailDelivery,
	DeliveryMethodShipping,
	DeliveryMethodPickup,
}

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
