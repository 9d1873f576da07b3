package enums

import (
	"fmt"
	"strings"
)

// PriceType categorizes prices into the one-time and recurring families.
// The recurring family determines subscription grouping at payment time.
type PriceType string

const (
	PriceTypeOneTime   PriceType = "one_time"
	PriceTypeRecurring PriceType = "recurring"
	PriceTypeTiered    PriceType = "tiered"
	PriceTypeVolume    PriceType = "volume"
	PriceTypeGraduated PriceType = "graduated"
	PriceTypePackage   PriceType = "package"
)

var validPriceTypes = []PriceType{
	PriceTypeOneTime,
	PriceTypeRecurring,
	PriceTypeTiered,
	PriceTypeVolume,
	PriceTypeGraduated,
	PriceTypePackage,
}

// String implements fmt.Stringer.
func (p PriceType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceType.
func (p PriceType) IsValid() bool {
	for _, candidate := range validPriceTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsRecurring reports whether the price belongs to the recurring family.
func (p PriceType) IsRecurring() bool {
	switch p {
	case PriceTypeRecurring, PriceTypeTiered, PriceTypeVolume, PriceTypeGraduated, PriceTypePackage:
		return true
	default:
		return false
	}
}

// ParsePriceType converts raw input into a PriceType.
func ParsePriceType(value string) (PriceType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPriceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price type %q", value)
}
