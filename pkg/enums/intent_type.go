package enums

import "fmt"

// IntentType distinguishes payment-intent checkouts from setup-intent
// (subscription) checkouts.
type IntentType string

const (
	IntentTypePayment IntentType = "payment"
	IntentTypeSetup   IntentType = "setup"
)

var validIntentTypes = []IntentType{
	IntentTypePayment,
	IntentTypeSetup,
}

// String implements fmt.Stringer.
func (i IntentType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IntentType.
func (i IntentType) IsValid() bool {
	for _, candidate := range validIntentTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIntentType converts raw input into an IntentType.
func ParseIntentType(value string) (IntentType, error) {
	for _, candidate := range validIntentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid intent type %q", value)
}
