package enums

import (
	"fmt"
	"strings"
	"time"
)

// RenewInterval is the billing period unit for recurring prices.
type RenewInterval string

const (
	RenewIntervalDay   RenewInterval = "day"
	RenewIntervalWeek  RenewInterval = "week"
	RenewIntervalMonth RenewInterval = "month"
	RenewIntervalYear  RenewInterval = "year"
)

var validRenewIntervals = []RenewInterval{
	RenewIntervalDay,
	RenewIntervalWeek,
	RenewIntervalMonth,
	RenewIntervalYear,
}

// String implements fmt.Stringer.
func (r RenewInterval) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RenewInterval.
func (r RenewInterval) IsValid() bool {
	for _, candidate := range validRenewIntervals {
		if candidate == r {
			return true
		}
	}
	return false
}

// AddTo advances t by n intervals. Unknown intervals leave t unchanged.
func (r RenewInterval) AddTo(t time.Time, n int) time.Time {
	switch r {
	case RenewIntervalDay:
		return t.AddDate(0, 0, n)
	case RenewIntervalWeek:
		return t.AddDate(0, 0, 7*n)
	case RenewIntervalMonth:
		return t.AddDate(0, n, 0)
	case RenewIntervalYear:
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}

// ParseRenewInterval converts raw input into a RenewInterval.
func ParseRenewInterval(value string) (RenewInterval, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRenewIntervals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid renew interval %q", value)
}
