package enums

import (
	"fmt"
	"strings"
)

// FulfillmentMethod selects the dispatch strategy an organization uses for
// newly completed orders.
type FulfillmentMethod string

const (
	FulfillmentMethodAutomation      FulfillmentMethod = "automation"
	FulfillmentMethodAPI             FulfillmentMethod = "api"
	FulfillmentMethodManual          FulfillmentMethod = "manual"
	FulfillmentMethodExternalWebhook FulfillmentMethod = "external_webhook"
	FulfillmentMethodHybrid          FulfillmentMethod = "hybrid"
)

var validFulfillmentMethods = []FulfillmentMethod{
	FulfillmentMethodAutomation,
	FulfillmentMethodAPI,
	FulfillmentMethodManual,
	FulfillmentMethodExternalWebhook,
	FulfillmentMethodHybrid,
}

// String implements fmt.Stringer.
func (f FulfillmentMethod) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentMethod.
func (f FulfillmentMethod) IsValid() bool {
	for _, candidate := range validFulfillmentMethods {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentMethod converts raw input into a FulfillmentMethod.
func ParseFulfillmentMethod(value string) (FulfillmentMethod, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validFulfillmentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment method %q", value)
}
