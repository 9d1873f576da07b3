package types

// Discount references a promotion code or coupon attached to a checkout
// session. The ID is resolved against the payment provider at completion time.
type Discount struct {
	ID string `json:"id"`
}

// DiscountList stores the session's discounts inside a JSONB column.
type DiscountList []Discount
