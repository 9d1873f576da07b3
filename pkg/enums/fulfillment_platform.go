package enums

import (
	"fmt"
	"strings"
)

// FulfillmentPlatform identifies the third-party sales platform that reported
// an external fulfillment.
type FulfillmentPlatform string

const (
	PlatformShopify      FulfillmentPlatform = "shopify"
	PlatformEtsy         FulfillmentPlatform = "etsy"
	PlatformClickFunnels FulfillmentPlatform = "clickfunnels"
	PlatformWooCommerce  FulfillmentPlatform = "woocommerce"
	PlatformAmazon       FulfillmentPlatform = "amazon"
	PlatformCustom       FulfillmentPlatform = "custom"
)

var validFulfillmentPlatforms = []FulfillmentPlatform{
	PlatformShopify,
	PlatformEtsy,
	PlatformClickFunnels,
	PlatformWooCommerce,
	PlatformAmazon,
	PlatformCustom,
}

// String implements fmt.Stringer.
func (p FulfillmentPlatform) String() string {
	return string(p)
}

// IsValid reports whether the value is a known FulfillmentPlatform.
func (p FulfillmentPlatform) IsValid() bool {
	for _, candidate := range validFulfillmentPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseFulfillmentPlatform converts raw input into a FulfillmentPlatform.
func ParseFulfillmentPlatform(value string) (FulfillmentPlatform, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validFulfillmentPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment platform %q", value)
}
