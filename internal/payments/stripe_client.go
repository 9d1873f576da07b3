package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/coupon"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/promotioncode"
	"github.com/stripe/stripe-go/v84/setupintent"
	"github.com/stripe/stripe-go/v84/subscription"

	pkgstripe "github.com/leomarchetti/offerstack-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations required by the
// payment reconciliation engine.
type StripePaymentClient interface {
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	RetrieveSetupIntent(ctx context.Context, id string) (*stripe.SetupIntent, error)
	CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	FindActivePromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error)
	RetrieveCoupon(ctx context.Context, id string) (*stripe.Coupon, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the payment service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripePaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (w *stripeClientWrapper) RetrieveSetupIntent(ctx context.Context, id string) (*stripe.SetupIntent, error) {
	params := &stripe.SetupIntentParams{}
	params.Context = ctx
	return setupintent.Get(id, params)
}

func (w *stripeClientWrapper) CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if params != nil {
		params.Context = ctx
	}
	return subscription.New(params)
}

// FindActivePromotionCode resolves a customer-facing code to an active
// promotion code, or nil when none matches.
func (w *stripeClientWrapper) FindActivePromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := promotioncode.List(params)
	for iter.Next() {
		return iter.PromotionCode(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (w *stripeClientWrapper) RetrieveCoupon(ctx context.Context, id string) (*stripe.Coupon, error) {
	params := &stripe.CouponParams{}
	params.Context = ctx
	return coupon.Get(id, params)
}
