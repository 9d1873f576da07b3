package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/internal/orders"
	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/outbox"
	"github.com/leomarchetti/offerstack-backend/pkg/outbox/payloads"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	order        *models.Order
	orderUpdates map[string]any
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) InsertOrderIgnoreConflict(ctx context.Context, order *models.Order) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindBySessionKey(ctx context.Context, organizationID, checkoutSessionID uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	s.orderUpdates = fields
	return nil
}

type stubPaymentsRepo struct {
	session       *models.CheckoutSession
	customer      *models.Customer
	sessionStatus enums.CheckoutSessionStatus
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindSession(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	if s.session == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.session, nil
}

func (s *stubPaymentsRepo) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.customer == nil || s.customer.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.customer, nil
}

func (s *stubPaymentsRepo) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status enums.CheckoutSessionStatus) error {
	s.sessionStatus = status
	return nil
}

type stubStripeClient struct {
	paymentIntent      *stripe.PaymentIntent
	setupIntent        *stripe.SetupIntent
	subscriptionParams *stripe.SubscriptionParams
	subscriptionCalls  int
	retrieveCalls      int
	promoCodes         map[string]*stripe.PromotionCode
	coupons            map[string]*stripe.Coupon
}

func (s *stubStripeClient) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	s.retrieveCalls++
	return s.paymentIntent, nil
}

func (s *stubStripeClient) RetrieveSetupIntent(ctx context.Context, id string) (*stripe.SetupIntent, error) {
	s.retrieveCalls++
	return s.setupIntent, nil
}

func (s *stubStripeClient) CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	s.subscriptionCalls++
	s.subscriptionParams = params
	return &stripe.Subscription{ID: "sub_test"}, nil
}

func (s *stubStripeClient) FindActivePromotionCode(ctx context.Context, code string) (*stripe.PromotionCode, error) {
	return s.promoCodes[code], nil
}

func (s *stubStripeClient) RetrieveCoupon(ctx context.Context, id string) (*stripe.Coupon, error) {
	if c, ok := s.coupons[id]; ok {
		return c, nil
	}
	return nil, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubDispatcher struct {
	calls int
	err   error
}

func (s *stubDispatcher) AutoFulfillOrder(ctx context.Context, order *models.Order) error {
	s.calls++
	return s.err
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) NotifyOrder(ctx context.Context, orderID uuid.UUID) error {
	s.calls++
	return s.err
}

type fixture struct {
	svc        Service
	ordersRepo *stubOrdersRepo
	repo       *stubPaymentsRepo
	stripe     *stubStripeClient
	outbox     *stubOutboxPublisher
	dispatcher *stubDispatcher
	notifier   *stubNotifier
}

func newFixture(t *testing.T, order *models.Order, session *models.CheckoutSession, customer *models.Customer, stripeStub *stubStripeClient) *fixture {
	t.Helper()

	f := &fixture{
		ordersRepo: &stubOrdersRepo{order: order},
		repo:       &stubPaymentsRepo{session: session, customer: customer},
		stripe:     stripeStub,
		outbox:     &stubOutboxPublisher{},
		dispatcher: &stubDispatcher{},
		notifier:   &stubNotifier{},
	}
	svc, err := NewService(
		f.ordersRepo,
		f.repo,
		stubTxRunner{},
		f.stripe,
		f.outbox,
		f.dispatcher,
		f.notifier,
		nil,
		logger.New(logger.Options{ServiceName: "payments-test"}),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func paymentOrder(session *models.CheckoutSession, customerID *uuid.UUID) *models.Order {
	price := &models.Price{
		ID:             uuid.New(),
		Type:           enums.PriceTypeOneTime,
		Amount:         decimal.RequireFromString("25.00"),
		GatewayPriceID: "price_onetime",
	}
	return &models.Order{
		ID:                uuid.New(),
		OrganizationID:    session.OrganizationID,
		CheckoutSessionID: session.ID,
		CustomerID:        customerID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
		Items: []models.OrderItem{
			{ID: uuid.New(), PriceID: price.ID, Quantity: 2, Price: price},
		},
	}
}

func paymentSession(intentType enums.IntentType) *models.CheckoutSession {
	return &models.CheckoutSession{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Status:         enums.CheckoutSessionStatusOpen,
		IntentType:     intentType,
		IntentID:       "pi_test",
		Currency:       enums.CurrencyUSD,
	}
}

func TestCompleteOrderPaymentIntent(t *testing.T) {
	session := paymentSession(enums.IntentTypePayment)
	customer := &models.Customer{ID: uuid.New(), GatewayCustomerID: "cus_test"}
	order := paymentOrder(session, &customer.ID)

	f := newFixture(t, order, session, customer, &stubStripeClient{
		paymentIntent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded},
	})

	result, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	if err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}

	if result.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", result.Status)
	}
	if !result.TotalAmount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected total 50, got %s", result.TotalAmount)
	}
	if f.repo.sessionStatus != enums.CheckoutSessionStatusCompleted {
		t.Fatalf("session not closed, status %s", f.repo.sessionStatus)
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(f.outbox.events))
	}
	event := f.outbox.events[0]
	if event.EventType != enums.EventOrderCompleted {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.OrderCompletedEvent)
	if !ok {
		t.Fatalf("unexpected payload %T", event.Data)
	}
	if payload.OrderID != order.ID || payload.IntentType != enums.IntentTypePayment {
		t.Fatal("payload not populated from order")
	}
	if f.dispatcher.calls != 1 || f.notifier.calls != 1 {
		t.Fatalf("expected dispatch and notify once, got %d / %d", f.dispatcher.calls, f.notifier.calls)
	}
}

func TestCompleteOrderAlreadyCompleted(t *testing.T) {
	session := paymentSession(enums.IntentTypePayment)
	customer := &models.Customer{ID: uuid.New()}
	order := paymentOrder(session, &customer.ID)
	order.Status = enums.OrderStatusCompleted

	f := newFixture(t, order, session, customer, &stubStripeClient{})

	result, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	if err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	if result.ID != order.ID {
		t.Fatal("expected the completed order back")
	}
	if f.stripe.retrieveCalls != 0 {
		t.Fatal("provider must not be called for a completed order")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event may be emitted on replay")
	}
	if f.dispatcher.calls != 0 || f.notifier.calls != 0 {
		t.Fatal("fulfillment and notification must not rerun on replay")
	}
}

func TestCompleteOrderPaymentIntentNotSucceeded(t *testing.T) {
	session := paymentSession(enums.IntentTypePayment)
	customer := &models.Customer{ID: uuid.New()}
	order := paymentOrder(session, &customer.ID)

	f := newFixture(t, order, session, customer, &stubStripeClient{
		paymentIntent: &stripe.PaymentIntent{
			Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
			LastPaymentError: &stripe.Error{
				Code: stripe.ErrorCodeCardDeclined,
				Msg:  "Your card was declined.",
			},
		},
	})

	_, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePayment {
		t.Fatalf("expected payment error, got %v", err)
	}
	details, ok := typed.Details().(pkgerrors.PaymentDetails)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details.ProviderCode != string(stripe.ErrorCodeCardDeclined) {
		t.Fatalf("provider code not propagated: %s", details.ProviderCode)
	}
	if f.repo.sessionStatus == enums.CheckoutSessionStatusCompleted {
		t.Fatal("session must not complete on failure")
	}
	if f.dispatcher.calls != 0 {
		t.Fatal("no fulfillment on failure")
	}
}

func TestCompleteOrderSetupIntentFailureMarksSessionFailed(t *testing.T) {
	session := paymentSession(enums.IntentTypeSetup)
	customer := &models.Customer{ID: uuid.New()}
	order := paymentOrder(session, &customer.ID)

	f := newFixture(t, order, session, customer, &stubStripeClient{
		setupIntent: &stripe.SetupIntent{Status: stripe.SetupIntentStatusRequiresAction},
	})

	_, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePayment {
		t.Fatalf("expected payment error, got %v", err)
	}
	if f.repo.sessionStatus != enums.CheckoutSessionStatusFailed {
		t.Fatalf("expected failed session, got %s", f.repo.sessionStatus)
	}
	if f.stripe.subscriptionCalls != 0 {
		t.Fatal("no subscription may be created on setup failure")
	}
}

// dbTxRunner mirrors the production transaction semantics: an error from
// the closure rolls the transaction back.
type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:payments_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS checkout_sessions (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  customer_id TEXT,
  status TEXT NOT NULL DEFAULT 'open',
  intent_type TEXT NOT NULL DEFAULT 'payment',
  intent_id TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  discounts TEXT,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS checkout_line_items (
  id TEXT PRIMARY KEY,
  checkout_session_id TEXT NOT NULL,
  organization_id TEXT NOT NULL,
  price_id TEXT NOT NULL,
  offer_item_id TEXT,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  email TEXT NOT NULL,
  name TEXT,
  gateway_customer_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// The reconciliation transaction rolls back when the setup intent is
// declined; the session's failed status is written outside it and must
// survive into committed state.
func TestCompleteOrderSetupFailurePersistsFailedSession(t *testing.T) {
	db := setupPaymentsTestDB(t)
	ctx := context.Background()

	customer := &models.Customer{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "buyer@example.com",
	}
	require.NoError(t, db.Create(customer).Error)

	session := &models.CheckoutSession{
		ID:             uuid.New(),
		OrganizationID: customer.OrganizationID,
		CustomerID:     &customer.ID,
		Status:         enums.CheckoutSessionStatusOpen,
		IntentType:     enums.IntentTypeSetup,
		IntentID:       "seti_test",
		Currency:       enums.CurrencyUSD,
	}
	require.NoError(t, db.Create(session).Error)

	order := paymentOrder(session, &customer.ID)
	svc, err := NewService(
		&stubOrdersRepo{order: order},
		NewRepository(db),
		dbTxRunner{db: db},
		&stubStripeClient{
			setupIntent: &stripe.SetupIntent{Status: stripe.SetupIntentStatusRequiresAction},
		},
		&stubOutboxPublisher{},
		&stubDispatcher{},
		&stubNotifier{},
		nil,
		logger.New(logger.Options{ServiceName: "payments-test"}),
	)
	require.NoError(t, err)

	_, err = svc.CompleteOrder(ctx, order.ID, "tok_confirm")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodePayment, typed.Code())

	var stored models.CheckoutSession
	require.NoError(t, db.Where("id = ?", session.ID).First(&stored).Error)
	require.Equal(t, enums.CheckoutSessionStatusFailed, stored.Status)
}

func TestCompleteOrderSetupIntentBuildsSubscription(t *testing.T) {
	session := paymentSession(enums.IntentTypeSetup)
	session.Discounts = types.DiscountList{{ID: "PROMO10"}, {ID: "PROMO20"}}
	customer := &models.Customer{ID: uuid.New(), GatewayCustomerID: "cus_test"}

	cycles := 12
	recurringPrice := &models.Price{
		ID:                uuid.New(),
		Type:              enums.PriceTypeRecurring,
		Amount:            decimal.RequireFromString("10.00"),
		RenewInterval:     enums.RenewIntervalMonth,
		CancelAfterCycles: &cycles,
		GatewayPriceID:    "price_recurring",
	}
	oneTimePrice := &models.Price{
		ID:             uuid.New(),
		Type:           enums.PriceTypeOneTime,
		Amount:         decimal.RequireFromString("5.00"),
		GatewayPriceID: "price_onetime",
	}
	unsyncedPrice := &models.Price{
		ID:     uuid.New(),
		Type:   enums.PriceTypeOneTime,
		Amount: decimal.RequireFromString("3.00"),
	}
	order := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    session.OrganizationID,
		CheckoutSessionID: session.ID,
		CustomerID:        &customer.ID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
		Items: []models.OrderItem{
			{ID: uuid.New(), PriceID: recurringPrice.ID, Quantity: 1, Price: recurringPrice},
			{ID: uuid.New(), PriceID: oneTimePrice.ID, Quantity: 3, Price: oneTimePrice},
			{ID: uuid.New(), PriceID: unsyncedPrice.ID, Quantity: 1, Price: unsyncedPrice},
		},
	}

	f := newFixture(t, order, session, customer, &stubStripeClient{
		setupIntent: &stripe.SetupIntent{
			Status:        stripe.SetupIntentStatusSucceeded,
			PaymentMethod: &stripe.PaymentMethod{ID: "pm_test"},
		},
		promoCodes: map[string]*stripe.PromotionCode{
			"PROMO10": {ID: "promo_10"},
			"PROMO20": {ID: "promo_20"},
		},
	})

	before := time.Now()
	if _, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm"); err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}

	if f.stripe.subscriptionCalls != 1 {
		t.Fatalf("expected one subscription, got %d", f.stripe.subscriptionCalls)
	}
	params := f.stripe.subscriptionParams
	if got := stripe.StringValue(params.Customer); got != "cus_test" {
		t.Fatalf("unexpected customer %s", got)
	}
	if got := stripe.StringValue(params.DefaultPaymentMethod); got != "pm_test" {
		t.Fatalf("unexpected payment method %s", got)
	}
	if len(params.Items) != 1 || stripe.StringValue(params.Items[0].Price) != "price_recurring" {
		t.Fatal("recurring item not mapped to subscription item")
	}
	if len(params.AddInvoiceItems) != 1 || stripe.StringValue(params.AddInvoiceItems[0].Price) != "price_onetime" {
		t.Fatal("one-time item with gateway price must be the only invoice item")
	}
	if len(params.Discounts) != 1 || stripe.StringValue(params.Discounts[0].PromotionCode) != "promo_10" {
		t.Fatal("first resolved promotion code must win")
	}
	if params.CancelAt == nil {
		t.Fatal("cancel_at expected for capped recurring price")
	}
	wantCancel := enums.RenewIntervalMonth.AddTo(before, cycles)
	gotCancel := time.Unix(stripe.Int64Value(params.CancelAt), 0)
	if gotCancel.Before(wantCancel.Add(-time.Minute)) || gotCancel.After(wantCancel.Add(time.Minute)) {
		t.Fatalf("cancel_at %v not near %v", gotCancel, wantCancel)
	}
}

func TestCompleteOrderDirectCouponExclusive(t *testing.T) {
	session := paymentSession(enums.IntentTypeSetup)
	session.Discounts = types.DiscountList{{ID: "SAVE50"}, {ID: "PROMO10"}}
	customer := &models.Customer{ID: uuid.New(), GatewayCustomerID: "cus_test"}

	price := &models.Price{
		ID:             uuid.New(),
		Type:           enums.PriceTypeRecurring,
		Amount:         decimal.RequireFromString("10.00"),
		RenewInterval:  enums.RenewIntervalMonth,
		GatewayPriceID: "price_recurring",
	}
	order := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    session.OrganizationID,
		CheckoutSessionID: session.ID,
		CustomerID:        &customer.ID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
		Items: []models.OrderItem{
			{ID: uuid.New(), PriceID: price.ID, Quantity: 1, Price: price},
		},
	}

	f := newFixture(t, order, session, customer, &stubStripeClient{
		setupIntent: &stripe.SetupIntent{Status: stripe.SetupIntentStatusSucceeded},
		coupons: map[string]*stripe.Coupon{
			"SAVE50": {ID: "coupon_50"},
		},
		promoCodes: map[string]*stripe.PromotionCode{
			"PROMO10": {ID: "promo_10"},
		},
	})

	if _, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm"); err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}

	params := f.stripe.subscriptionParams
	if len(params.Discounts) != 1 || stripe.StringValue(params.Discounts[0].Coupon) != "coupon_50" {
		t.Fatal("direct coupon must be applied exclusively")
	}
	if params.CancelAt != nil {
		t.Fatal("no cancel_at without cancel_after_cycles")
	}
}

func TestCompleteOrderRequiresCustomer(t *testing.T) {
	session := paymentSession(enums.IntentTypePayment)
	order := paymentOrder(session, nil)

	f := newFixture(t, order, session, nil, &stubStripeClient{
		paymentIntent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded},
	})

	_, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteOrderSetupRejectsEmptyOrder(t *testing.T) {
	session := paymentSession(enums.IntentTypeSetup)
	customer := &models.Customer{ID: uuid.New(), GatewayCustomerID: "cus_test"}
	order := &models.Order{
		ID:                uuid.New(),
		OrganizationID:    session.OrganizationID,
		CheckoutSessionID: session.ID,
		CustomerID:        &customer.ID,
		Status:            enums.OrderStatusPending,
		Currency:          enums.CurrencyUSD,
	}

	f := newFixture(t, order, session, customer, &stubStripeClient{
		setupIntent: &stripe.SetupIntent{Status: stripe.SetupIntentStatusSucceeded},
	})

	_, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.stripe.subscriptionCalls != 0 {
		t.Fatal("no subscription for an empty order")
	}
}

func TestCompleteOrderBestEffortBoundary(t *testing.T) {
	session := paymentSession(enums.IntentTypePayment)
	customer := &models.Customer{ID: uuid.New()}
	order := paymentOrder(session, &customer.ID)

	f := newFixture(t, order, session, customer, &stubStripeClient{
		paymentIntent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded},
	})
	f.dispatcher.err = pkgerrors.New(pkgerrors.CodeDependency, "platform down")
	f.notifier.err = pkgerrors.New(pkgerrors.CodeDependency, "mailer down")

	result, err := f.svc.CompleteOrder(context.Background(), order.ID, "tok_confirm")
	if err != nil {
		t.Fatalf("completion must survive fulfillment and notification failures: %v", err)
	}
	if result.Status != enums.OrderStatusCompleted {
		t.Fatal("order must still complete")
	}
	if f.notifier.calls != 1 {
		t.Fatal("notification must still be attempted after fulfillment failure")
	}
}
