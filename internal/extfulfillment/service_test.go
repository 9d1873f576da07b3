package extfulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

type stubExtRepo struct {
	stored  *models.ExternalFulfillment
	upserts []*models.ExternalFulfillment
}

func (s *stubExtRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubExtRepo) Exists(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (bool, error) {
	return s.stored != nil, nil
}

func (s *stubExtRepo) Upsert(ctx context.Context, record *models.ExternalFulfillment) (bool, error) {
	s.upserts = append(s.upserts, record)
	if s.stored == nil {
		record.ID = uuid.New()
		s.stored = record
		return true, nil
	}
	// mimic the database upsert: plain fields take the incoming value,
	// tracking fields only move when non-null
	s.stored.Status = record.Status
	s.stored.OrderData = record.OrderData
	s.stored.FulfillmentData = record.FulfillmentData
	if record.TrackingNumber != nil {
		s.stored.TrackingNumber = record.TrackingNumber
	}
	if record.TrackingURL != nil {
		s.stored.TrackingURL = record.TrackingURL
	}
	return false, nil
}

func (s *stubExtRepo) FindByNaturalKey(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, externalOrderID string) (*models.ExternalFulfillment, error) {
	if s.stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.stored, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, pub outboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub, nil, logger.New(logger.Options{ServiceName: "extfulfillment-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func shopifyPayload() types.JSONMap {
	return types.JSONMap{
		"id":                 float64(450789469),
		"fulfillment_status": "shipped",
		"fulfillments": []any{
			map[string]any{
				"id":              float64(255858046),
				"status":          "success",
				"tracking_number": "1Z2345",
			},
		},
	}
}

func TestReconcileCreatesRecord(t *testing.T) {
	repo := &stubExtRepo{}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)
	orgID := uuid.New()

	record, err := svc.Reconcile(context.Background(), orgID, enums.PlatformShopify, WebhookInput{
		Payload: shopifyPayload(),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if record.ExternalOrderID != "450789469" {
		t.Fatalf("external order id = %q", record.ExternalOrderID)
	}
	if record.Status != enums.FulfillmentStatusFulfilled {
		t.Fatalf("shipped must canonicalize to fulfilled, got %s", record.Status)
	}
	if record.TrackingNumber == nil || *record.TrackingNumber != "1Z2345" {
		t.Fatal("tracking number must be extracted")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	data, ok := pub.events[0].Data.(payloads.ExternalFulfillmentSyncedEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", pub.events[0].Data)
	}
	if !data.Created {
		t.Fatal("first delivery must report created")
	}
}

func TestReconcileRedeliveryUpdatesInPlace(t *testing.T) {
	repo := &stubExtRepo{}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)
	orgID := uuid.New()

	first, err := svc.Reconcile(context.Background(), orgID, enums.PlatformShopify, WebhookInput{Payload: shopifyPayload()})
	if err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	// redelivery without the fulfillments block must not erase tracking
	second, err := svc.Reconcile(context.Background(), orgID, enums.PlatformShopify, WebhookInput{
		Payload: types.JSONMap{
			"id":                 float64(450789469),
			"fulfillment_status": "delivered",
		},
	})
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}

	if second.ID != first.ID {
		t.Fatal("redelivery must update the same record")
	}
	if len(repo.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(repo.upserts))
	}
	if second.TrackingNumber == nil || *second.TrackingNumber != "1Z2345" {
		t.Fatal("redelivery without tracking must keep the earlier value")
	}

	data := pub.events[1].Data.(payloads.ExternalFulfillmentSyncedEvent)
	if data.Created {
		t.Fatal("redelivery must not report created")
	}
}

func TestReconcileUnsupportedPlatform(t *testing.T) {
	svc := newTestService(t, &stubExtRepo{}, &stubOutboxPublisher{})

	_, err := svc.Reconcile(context.Background(), uuid.New(), enums.FulfillmentPlatform("fax"), WebhookInput{
		Payload: types.JSONMap{"order_id": "1"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReconcileEmptyPayload(t *testing.T) {
	svc := newTestService(t, &stubExtRepo{}, &stubOutboxPublisher{})

	_, err := svc.Reconcile(context.Background(), uuid.New(), enums.PlatformShopify, WebhookInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReconcileMissingOrderID(t *testing.T) {
	svc := newTestService(t, &stubExtRepo{}, &stubOutboxPublisher{})

	_, err := svc.Reconcile(context.Background(), uuid.New(), enums.PlatformShopify, WebhookInput{
		Payload: types.JSONMap{"note": "no identifiers here"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReconcileRequiresOrganization(t *testing.T) {
	svc := newTestService(t, &stubExtRepo{}, &stubOutboxPublisher{})

	_, err := svc.Reconcile(context.Background(), uuid.Nil, enums.PlatformShopify, WebhookInput{
		Payload: shopifyPayload(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
