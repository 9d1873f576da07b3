package payments

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
)

// buildSubscriptionParams assembles the provider subscription request for a
// setup-intent cart: recurring items become subscription items, one-time items
// become add-invoice items, and at most one discount is applied.
func (s *service) buildSubscriptionParams(
	ctx context.Context,
	order *models.Order,
	session *models.CheckoutSession,
	customer *models.Customer,
	defaultPaymentMethod string,
) (*stripe.SubscriptionParams, error) {
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items in order")
	}

	var recurring, oneTime []models.OrderItem
	for _, item := range order.Items {
		if item.Price != nil && item.Price.Type.IsRecurring() {
			recurring = append(recurring, item)
			continue
		}
		oneTime = append(oneTime, item)
	}

	params := &stripe.SubscriptionParams{
		Customer:             stripe.String(customer.GatewayCustomerID),
		DefaultPaymentMethod: stripe.String(defaultPaymentMethod),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	for _, item := range recurring {
		params.Items = append(params.Items, &stripe.SubscriptionItemsParams{
			Price:    stripe.String(item.Price.GatewayPriceID),
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	for _, item := range oneTime {
		if item.Price == nil || item.Price.GatewayPriceID == "" {
			continue
		}
		params.AddInvoiceItems = append(params.AddInvoiceItems, &stripe.SubscriptionAddInvoiceItemParams{
			Price:    stripe.String(item.Price.GatewayPriceID),
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	s.applyDiscount(ctx, params, session)

	if len(recurring) > 0 {
		if cancelAt := cancelAtFor(recurring[0].Price, time.Now()); cancelAt != nil {
			params.CancelAt = stripe.Int64(cancelAt.Unix())
		}
	}

	return params, nil
}

// applyDiscount resolves the session's discounts against the provider.
// The first id that resolves to an active promotion code wins; an id that
// resolves to a direct coupon instead is applied exclusively and stops the
// scan. Resolution failures are logged and skipped.
func (s *service) applyDiscount(ctx context.Context, params *stripe.SubscriptionParams, session *models.CheckoutSession) {
	var promotionCodeID string
	for _, discount := range session.Discounts {
		if discount.ID == "" {
			continue
		}

		promo, err := s.stripe.FindActivePromotionCode(ctx, discount.ID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "discount_id", discount.ID), "promotion code lookup failed, skipping discount")
			continue
		}
		if promo != nil {
			if promotionCodeID == "" {
				promotionCodeID = promo.ID
			}
			continue
		}

		coupon, err := s.stripe.RetrieveCoupon(ctx, discount.ID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "discount_id", discount.ID), "coupon lookup failed, skipping discount")
			continue
		}
		if coupon != nil {
			params.Discounts = []*stripe.SubscriptionDiscountParams{
				{Coupon: stripe.String(coupon.ID)},
			}
			return
		}
	}

	if promotionCodeID != "" {
		params.Discounts = []*stripe.SubscriptionDiscountParams{
			{PromotionCode: stripe.String(promotionCodeID)},
		}
	}
}

// cancelAtFor computes the auto-cancellation timestamp from a recurring
// price's cancel_after_cycles, counted in renew intervals from now.
func cancelAtFor(price *models.Price, now time.Time) *time.Time {
	if price == nil || !price.Type.IsRecurring() {
		return nil
	}
	if price.CancelAfterCycles == nil || *price.CancelAfterCycles <= 0 {
		return nil
	}
	cancelAt := price.RenewInterval.AddTo(now, *price.CancelAfterCycles)
	return &cancelAt
}
