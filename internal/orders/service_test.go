package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	inserted     bool
	insertErr    error
	existing     *models.Order
	createdItems []models.OrderItem
	createCalls  int
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) InsertOrderIgnoreConflict(ctx context.Context, order *models.Order) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	if s.inserted && order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return s.inserted, nil
}

func (s *stubOrdersRepo) FindBySessionKey(ctx context.Context, organizationID, checkoutSessionID uuid.UUID) (*models.Order, error) {
	if s.existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.existing, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	s.createCalls++
	s.createdItems = items
	return nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	panic("not implemented")
}

func testSession() *models.CheckoutSession {
	sessionID := uuid.New()
	orgID := uuid.New()
	return &models.CheckoutSession{
		ID:             sessionID,
		OrganizationID: orgID,
		Status:         enums.CheckoutSessionStatusOpen,
		IntentType:     enums.IntentTypePayment,
		Currency:       enums.CurrencyUSD,
		LineItems: []models.CheckoutLineItem{
			{ID: uuid.New(), CheckoutSessionID: sessionID, OrganizationID: orgID, PriceID: uuid.New(), Quantity: 2},
			{ID: uuid.New(), CheckoutSessionID: sessionID, OrganizationID: orgID, PriceID: uuid.New(), Quantity: 0},
		},
	}
}

func TestMaterializeCreatesOrderWithItems(t *testing.T) {
	repo := &stubOrdersRepo{inserted: true}
	svc, err := NewService(repo, stubTxRunner{}, logger.New(logger.Options{ServiceName: "orders-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	session := testSession()
	order, err := svc.Materialize(context.Background(), session)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.OrganizationID != session.OrganizationID || order.CheckoutSessionID != session.ID {
		t.Fatal("order not keyed to session")
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected one item create call, got %d", repo.createCalls)
	}
	if len(repo.createdItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(repo.createdItems))
	}
	for _, item := range repo.createdItems {
		if item.FulfillmentStatus != enums.FulfillmentStatusPending {
			t.Fatalf("expected pending item, got %s", item.FulfillmentStatus)
		}
		if item.Quantity < 1 {
			t.Fatalf("quantity %d not clamped to minimum", item.Quantity)
		}
		if item.QuantityRemaining != item.Quantity || item.QuantityFulfilled != 0 {
			t.Fatal("quantity counters not initialized")
		}
		if item.FulfillmentData == nil {
			t.Fatal("fulfillment data not initialized")
		}
	}
}

func TestMaterializeReturnsExistingOrderOnReplay(t *testing.T) {
	existing := &models.Order{ID: uuid.New(), Status: enums.OrderStatusCompleted}
	repo := &stubOrdersRepo{inserted: false, existing: existing}
	svc, err := NewService(repo, stubTxRunner{}, logger.New(logger.Options{ServiceName: "orders-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	order, err := svc.Materialize(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if order.ID != existing.ID {
		t.Fatal("expected the existing order to be returned")
	}
	if repo.createCalls != 0 {
		t.Fatal("items must not be recreated on replay")
	}
}

func TestMaterializeValidatesSession(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc, err := NewService(repo, stubTxRunner{}, logger.New(logger.Options{ServiceName: "orders-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := []*models.CheckoutSession{
		nil,
		{OrganizationID: uuid.New()},
		{ID: uuid.New()},
	}
	for _, session := range cases {
		_, err := svc.Materialize(context.Background(), session)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}
