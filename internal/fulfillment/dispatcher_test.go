package fulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/internal/provisioning"
	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
)

type stubFulfillmentRepo struct {
	org          *models.Organization
	items        []models.OrderItem
	orderUpdates map[string]any
	itemUpdates  map[uuid.UUID][]map[string]any
}

func (s *stubFulfillmentRepo) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	if s.org == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.org, nil
}

func (s *stubFulfillmentRepo) FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return s.items, nil
}

func (s *stubFulfillmentRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	s.orderUpdates = fields
	return nil
}

func (s *stubFulfillmentRepo) UpdateItem(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if s.itemUpdates == nil {
		s.itemUpdates = map[uuid.UUID][]map[string]any{}
	}
	s.itemUpdates[id] = append(s.itemUpdates[id], fields)
	return nil
}

type provisionCall struct {
	itemID uuid.UUID
	input  provisioning.ProvisionInput
}

type stubProvisioner struct {
	calls []provisionCall
	errOn map[uuid.UUID]error
}

func (s *stubProvisioner) Provision(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, input provisioning.ProvisionInput) (*models.OrderItem, error) {
	s.calls = append(s.calls, provisionCall{itemID: itemID, input: input})
	if err, ok := s.errOn[itemID]; ok {
		return nil, err
	}
	return &models.OrderItem{ID: itemID}, nil
}

func (s *stubProvisioner) MarkUnprovisionable(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, reason string, notes *string) (*models.OrderItem, error) {
	panic("not implemented")
}

func (s *stubProvisioner) UpdateTracking(ctx context.Context, itemID uuid.UUID, input provisioning.TrackingInput) (*models.OrderItem, error) {
	panic("not implemented")
}

func newTestDispatcher(t *testing.T, repo *stubFulfillmentRepo, prov *stubProvisioner) Dispatcher {
	t.Helper()
	d, err := NewDispatcher(repo, prov, nil, logger.New(logger.Options{ServiceName: "fulfillment-test"}))
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func testOrg(method enums.FulfillmentMethod) *models.Organization {
	return &models.Organization{
		ID:                    uuid.New(),
		Name:                  "Acme Offers",
		AutoFulfillOrders:     true,
		FulfillmentMethod:     method,
		DefaultDeliveryMethod: enums.DeliveryMethodInstantAccess,
	}
}

func testOrderFor(org *models.Organization) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Status:         enums.OrderStatusCompleted,
	}
}

func TestAutoFulfillSkipsWhenDisabled(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodAutomation)
	org.AutoFulfillOrders = false
	repo := &stubFulfillmentRepo{org: org}
	prov := &stubProvisioner{}
	d := newTestDispatcher(t, repo, prov)

	if err := d.AutoFulfillOrder(context.Background(), testOrderFor(org)); err != nil {
		t.Fatalf("AutoFulfillOrder: %v", err)
	}
	if repo.orderUpdates != nil {
		t.Fatal("order must not be touched when auto fulfill is off")
	}
	if len(prov.calls) != 0 {
		t.Fatal("no provisioning when auto fulfill is off")
	}
}

func TestAutoFulfillAutomationInstantAccess(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodAutomation)
	repo := &stubFulfillmentRepo{
		org: org,
		items: []models.OrderItem{
			{ID: uuid.New(), Quantity: 3},
		},
	}
	prov := &stubProvisioner{}
	d := newTestDispatcher(t, repo, prov)

	order := testOrderFor(org)
	if err := d.AutoFulfillOrder(context.Background(), order); err != nil {
		t.Fatalf("AutoFulfillOrder: %v", err)
	}

	if repo.orderUpdates["fulfillment_method"] != org.FulfillmentMethod {
		t.Fatal("organization method not snapshotted onto order")
	}
	if len(prov.calls) != 1 {
		t.Fatalf("expected 1 provision call, got %d", len(prov.calls))
	}
	call := prov.calls[0]
	if call.input.Status != enums.FulfillmentStatusFulfilled {
		t.Fatalf("expected fulfilled, got %s", call.input.Status)
	}
	if call.input.QuantityFulfilled == nil || *call.input.QuantityFulfilled != 3 {
		t.Fatal("full quantity must be provisioned")
	}
	if call.input.Metadata["auto_fulfilled"] != true || call.input.Metadata["fulfillment_type"] != "automation" {
		t.Fatal("automation metadata missing")
	}
}

func TestAutoFulfillAutomationShippingLeftPending(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodAutomation)
	org.DefaultDeliveryMethod = enums.DeliveryMethodShipping
	repo := &stubFulfillmentRepo{
		org:   org,
		items: []models.OrderItem{{ID: uuid.New(), Quantity: 1}},
	}
	prov := &stubProvisioner{}
	d := newTestDispatcher(t, repo, prov)

	if err := d.AutoFulfillOrder(context.Background(), testOrderFor(org)); err != nil {
		t.Fatalf("AutoFulfillOrder: %v", err)
	}
	if len(prov.calls) != 0 {
		t.Fatal("shipping items must stay pending")
	}
}

func TestAutoFulfillExternalWebhookLeavesProcessing(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodExternalWebhook)
	itemID := uuid.New()
	repo := &stubFulfillmentRepo{
		org:   org,
		items: []models.OrderItem{{ID: itemID, Quantity: 1}},
	}
	prov := &stubProvisioner{}
	d := newTestDispatcher(t, repo, prov)

	if err := d.AutoFulfillOrder(context.Background(), testOrderFor(org)); err != nil {
		t.Fatalf("AutoFulfillOrder: %v", err)
	}
	if len(prov.calls) != 0 {
		t.Fatal("webhook handoff must not provision")
	}

	updates := repo.itemUpdates[itemID]
	// first update stamps delivery_method, second the webhook handoff
	if len(updates) != 2 {
		t.Fatalf("expected 2 item updates, got %d", len(updates))
	}
	handoff := updates[1]
	if handoff["fulfillment_status"] != enums.FulfillmentStatusProcessing {
		t.Fatal("item must be left in processing for the external platform")
	}
}

func TestAutoFulfillHybridRoutesByItemType(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodHybrid)
	org.FulfillmentConfig = map[string]any{
		"auto_fulfill_item_types": []any{"digital"},
	}
	digital := models.OrderItem{
		ID:        uuid.New(),
		Quantity:  1,
		OfferItem: &models.OfferItem{Type: "digital"},
	}
	physical := models.OrderItem{
		ID:        uuid.New(),
		Quantity:  1,
		OfferItem: &models.OfferItem{Type: "physical"},
	}
	repo := &stubFulfillmentRepo{org: org, items: []models.OrderItem{digital, physical}}
	prov := &stubProvisioner{}
	d := newTestDispatcher(t, repo, prov)

	if err := d.AutoFulfillOrder(context.Background(), testOrderFor(org)); err != nil {
		t.Fatalf("AutoFulfillOrder: %v", err)
	}
	if len(prov.calls) != 1 {
		t.Fatalf("only the digital item may auto-fulfill, got %d calls", len(prov.calls))
	}
	if prov.calls[0].itemID != digital.ID {
		t.Fatal("wrong item routed to automation")
	}
}

func TestAutoFulfillItemFailureIsIsolated(t *testing.T) {
	org := testOrg(enums.FulfillmentMethodAutomation)
	failing := models.OrderItem{ID: uuid.New(), Quantity: 1}
	healthy := models.OrderItem{ID: uuid.New(), Quantity: 1}
	repo := &stubFulfillmentRepo{org: org, items: []models.OrderItem{failing, healthy}}
	prov := &stubProvisioner{
		errOn: map[uuid.UUID]error{
			failing.ID: pkgerrors.New(pkgerrors.CodeDependency, "boom"),
		},
	}
	d := newTestDispatcher(t, repo, prov)

	if err := d.AutoFulfillOrder(context.Background(), testOrderFor(org)); err != nil {
		t.Fatalf("item failure must not fail the dispatch: %v", err)
	}
	if len(prov.calls) != 2 {
		t.Fatalf("both items must be attempted, got %d", len(prov.calls))
	}
}

func TestAutoFulfillUnknownMethod(t *testing.T) {
	org := testOrg(enums.FulfillmentMethod("teleport"))
	repo := &stubFulfillmentRepo{org: org}
	d := newTestDispatcher(t, repo, &stubProvisioner{})

	err := d.AutoFulfillOrder(context.Background(), testOrderFor(org))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
