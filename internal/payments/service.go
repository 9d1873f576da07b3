package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/internal/orders"
	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/metrics"
	"github.com/leomarchetti/offerstack-backend/pkg/outbox"
	"github.com/leomarchetti/offerstack-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type fulfillmentDispatcher interface {
	AutoFulfillOrder(ctx context.Context, order *models.Order) error
}

type orderNotifier interface {
	NotifyOrder(ctx context.Context, orderID uuid.UUID) error
}

// Service reconciles an order against the payment provider and marks it
// completed exactly once.
type Service interface {
	CompleteOrder(ctx context.Context, orderID uuid.UUID, confirmationToken string) (*models.Order, error)
}

type service struct {
	orders      orders.Repository
	repo        Repository
	tx          txRunner
	stripe      StripePaymentClient
	outbox      outboxPublisher
	fulfillment fulfillmentDispatcher
	notifier    orderNotifier
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
}

// NewService builds the payment reconciliation service.
func NewService(
	ordersRepo orders.Repository,
	repo Repository,
	tx txRunner,
	stripeClient StripePaymentClient,
	outboxPub outboxPublisher,
	dispatcher fulfillmentDispatcher,
	notifier orderNotifier,
	pipelineMetrics *metrics.PipelineMetrics,
	logg *logger.Logger,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("fulfillment dispatcher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:      ordersRepo,
		repo:        repo,
		tx:          tx,
		stripe:      stripeClient,
		outbox:      outboxPub,
		fulfillment: dispatcher,
		notifier:    notifier,
		metrics:     pipelineMetrics,
		logg:        logg,
	}, nil
}

// CompleteOrder verifies the provider intent behind the order's checkout
// session and transitions the order pending -> completed. The order row is
// locked for the whole reconciliation so two concurrent attempts cannot both
// pass the completed guard and settle twice. Fulfillment and notification run
// after commit and never fail the call.
func (s *service) CompleteOrder(ctx context.Context, orderID uuid.UUID, confirmationToken string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var (
		result           *models.Order
		alreadyCompleted bool
		intentType       enums.IntentType
		sessionToFail    uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		repo := s.repo.WithTx(tx)

		order, err := ordersRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCompleted {
			s.logg.Warn(ctx, "completion requested for already-completed order")
			result = order
			alreadyCompleted = true
			return nil
		}

		session, err := repo.FindSession(ctx, order.CheckoutSessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
		}
		intentType = session.IntentType

		customer, err := s.resolveCustomer(ctx, repo, order, session)
		if err != nil {
			return err
		}

		switch session.IntentType {
		case enums.IntentTypeSetup:
			if err := s.reconcileSetupIntent(ctx, order, session, customer); err != nil {
				if errors.Is(err, errSetupDeclined) {
					sessionToFail = session.ID
				}
				return err
			}
		default:
			if err := s.reconcilePaymentIntent(ctx, session); err != nil {
				return err
			}
		}

		now := time.Now()
		fields := map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": now,
			"customer_id":  customer.ID,
			"total_amount": orderTotal(order),
		}
		if err := ordersRepo.UpdateOrder(ctx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order completed")
		}
		if err := repo.UpdateSessionStatus(ctx, session.ID, enums.CheckoutSessionStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close checkout session")
		}

		order.Status = enums.OrderStatusCompleted
		order.CompletedAt = &now
		order.CustomerID = &customer.ID
		order.TotalAmount = orderTotal(order)

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCompletedEvent{
				OrderID:           order.ID,
				OrganizationID:    order.OrganizationID,
				CheckoutSessionID: order.CheckoutSessionID,
				IntentType:        session.IntentType,
				TotalAmount:       order.TotalAmount.String(),
				Currency:          order.Currency,
				CompletedAt:       now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order completed event")
		}

		result = order
		return nil
	})
	if err != nil {
		// The reconciliation transaction has rolled back; the failed status
		// must land on the session anyway, so it is written on the base
		// repository where it commits independently.
		if sessionToFail != uuid.Nil {
			if markErr := s.repo.UpdateSessionStatus(ctx, sessionToFail, enums.CheckoutSessionStatusFailed); markErr != nil {
				s.logg.Error(ctx, "marking checkout session failed", markErr)
			}
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePayment {
			s.metrics.IncPaymentFailure(intentType.String())
		}
		return nil, err
	}

	if alreadyCompleted {
		return result, nil
	}

	s.metrics.IncOrderCompleted(intentType.String())
	s.logg.Info(ctx, "order completed")

	s.runBestEffort(ctx, "fulfillment dispatch", func() error {
		return s.fulfillment.AutoFulfillOrder(ctx, result)
	})
	s.runBestEffort(ctx, "order notification", func() error {
		return s.notifier.NotifyOrder(ctx, result.ID)
	})

	return result, nil
}

// resolveCustomer prefers the order's customer, then the session's. An order
// with neither cannot be settled and fails terminally.
func (s *service) resolveCustomer(ctx context.Context, repo Repository, order *models.Order, session *models.CheckoutSession) (*models.Customer, error) {
	customerID := order.CustomerID
	if customerID == nil {
		customerID = session.CustomerID
	}
	if customerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required for payment processing")
	}
	customer, err := repo.FindCustomer(ctx, *customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer required for payment processing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) reconcilePaymentIntent(ctx context.Context, session *models.CheckoutSession) error {
	intent, err := s.stripe.RetrievePaymentIntent(ctx, session.IntentID)
	if err != nil {
		return paymentErrorFrom(err, "payment could not be verified, please try again")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		details := pkgerrors.PaymentDetails{
			Type:         "payment_intent_not_succeeded",
			ProviderCode: string(intent.Status),
			UserMessage:  "Your payment has not completed. Please try again or use a different payment method.",
		}
		if intent.LastPaymentError != nil {
			details.ProviderCode = string(intent.LastPaymentError.Code)
			if intent.LastPaymentError.Msg != "" {
				details.UserMessage = intent.LastPaymentError.Msg
			}
		}
		return pkgerrors.NewPayment(details, "payment intent not succeeded")
	}
	return nil
}

// errSetupDeclined marks a setup intent the provider did not bring to
// succeeded. CompleteOrder fails the checkout session durably when it sees
// this in the returned chain.
var errSetupDeclined = errors.New("setup intent not succeeded")

func (s *service) reconcileSetupIntent(ctx context.Context, order *models.Order, session *models.CheckoutSession, customer *models.Customer) error {
	intent, err := s.stripe.RetrieveSetupIntent(ctx, session.IntentID)
	if err != nil {
		return paymentErrorFrom(err, "payment setup could not be verified, please try again")
	}
	if intent.Status != stripe.SetupIntentStatusSucceeded {
		details := pkgerrors.PaymentDetails{
			Type:        "setup_intent_not_succeeded",
			UserMessage: "We could not save your payment method. Please try again with a different card.",
		}
		if intent.LastSetupError != nil {
			details.ProviderCode = string(intent.LastSetupError.Code)
			if intent.LastSetupError.Msg != "" {
				details.UserMessage = intent.LastSetupError.Msg
			}
		}
		return pkgerrors.Wrap(pkgerrors.CodePayment, errSetupDeclined, "setup intent not succeeded").WithDetails(details)
	}

	var defaultPaymentMethod string
	if intent.PaymentMethod != nil {
		defaultPaymentMethod = intent.PaymentMethod.ID
	}

	params, err := s.buildSubscriptionParams(ctx, order, session, customer, defaultPaymentMethod)
	if err != nil {
		return err
	}
	if _, err := s.stripe.CreateSubscription(ctx, params); err != nil {
		return paymentErrorFrom(err, "subscription could not be created, please try again")
	}
	return nil
}

func (s *service) runBestEffort(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil {
		s.logg.Error(ctx, name+" failed after order completion", err)
	}
}

// paymentErrorFrom lifts a provider error into the typed payment taxonomy,
// keeping the raw provider code when one is available.
func paymentErrorFrom(err error, userMessage string) error {
	details := pkgerrors.PaymentDetails{
		Type:        "provider_error",
		UserMessage: userMessage,
	}
	if stripeErr, ok := err.(*stripe.Error); ok {
		details.ProviderCode = string(stripeErr.Code)
		if stripeErr.Msg != "" {
			details.UserMessage = stripeErr.Msg
		}
	}
	return pkgerrors.NewPayment(details, err.Error())
}

func orderTotal(order *models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		if item.Price == nil {
			continue
		}
		total = total.Add(item.Price.Amount.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
