package provisioning

import (
	"context"
	"fmt"
	"time"

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ProvisionInput carries one fulfillment update for an order item. Metadata
// is merged into the item's existing fulfillment_data, never replacing it.
type ProvisionInput struct {
	Status                enums.FulfillmentStatus
	QuantityFulfilled     *int
	Notes                 *string
	Metadata              types.JSONMap
	TrackingNumber        *string
	TrackingURL           *string
	UnprovisionableReason *string
	DeliveryAssets        types.JSONMap
}

// TrackingInput patches shipment fields without touching status or quantities.
type TrackingInput struct {
	TrackingNumber       *string
	TrackingURL          *string
	ExpectedDeliveryDate *time.Time
	DeliveredAt          *time.Time
	Notes                *string
}

// Service is the transactional state machine over order item fulfillment.
type Service interface {
	Provision(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, input ProvisionInput) (*models.OrderItem, error)
	MarkUnprovisionable(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, reason string, notes *string) (*models.OrderItem, error)
	UpdateTracking(ctx context.Context, itemID uuid.UUID, input TrackingInput) (*models.OrderItem, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the provisioning service.
func NewService(repo Repository, tx txRunner, outboxPub outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("provisioning repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxPub == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxPub, logg: logg}, nil
}

// Provision applies one fulfillment update to an order item inside a single
// transaction. The quantity invariant 0 <= quantity_fulfilled <= quantity is
// validated against the locked row before anything is written.
func (s *service) Provision(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, input ProvisionInput) (*models.OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment status")
	}

	var updated *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}

		quantityFulfilled := item.QuantityFulfilled
		if input.QuantityFulfilled != nil {
			quantityFulfilled = *input.QuantityFulfilled
		}
		if quantityFulfilled < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity_fulfilled cannot be negative")
		}
		if quantityFulfilled > item.Quantity {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity_fulfilled %d exceeds quantity %d", quantityFulfilled, item.Quantity))
		}

		fields := map[string]any{
			"fulfillment_status": input.Status,
			"quantity_fulfilled": quantityFulfilled,
			"quantity_remaining": item.Quantity - quantityFulfilled,
		}
		if len(input.Metadata) > 0 {
			merged := item.FulfillmentData.Merge(input.Metadata)
			fields["fulfillment_data"] = merged
			item.FulfillmentData = merged
		}
		if input.Notes != nil {
			fields["fulfillment_notes"] = *input.Notes
		}
		if input.TrackingNumber != nil {
			fields["tracking_number"] = *input.TrackingNumber
		}
		if input.TrackingURL != nil {
			fields["tracking_url"] = *input.TrackingURL
		}
		if input.UnprovisionableReason != nil {
			fields["unprovisionable_reason"] = *input.UnprovisionableReason
		}
		if len(input.DeliveryAssets) > 0 {
			fields["delivery_assets"] = input.DeliveryAssets
			item.DeliveryAssets = input.DeliveryAssets
		}

		now := time.Now()
		if input.Status == enums.FulfillmentStatusFulfilled || input.Status == enums.FulfillmentStatusPartiallyFulfilled {
			fields["fulfilled_at"] = now
			fields["fulfilled_by"] = actorID
			item.FulfilledAt = &now
			item.FulfilledBy = actorID
		}

		if err := repo.UpdateItem(ctx, item.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}

		item.FulfillmentStatus = input.Status
		item.QuantityFulfilled = quantityFulfilled
		item.QuantityRemaining = item.Quantity - quantityFulfilled
		if input.Notes != nil {
			item.FulfillmentNotes = input.Notes
		}
		if input.TrackingNumber != nil {
			item.TrackingNumber = input.TrackingNumber
		}
		if input.TrackingURL != nil {
			item.TrackingURL = input.TrackingURL
		}
		if input.UnprovisionableReason != nil {
			item.UnprovisionableReason = input.UnprovisionableReason
		}

		if input.Status == enums.FulfillmentStatusFulfilled {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderItemFulfilled,
				AggregateType: enums.AggregateOrderItem,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.OrderItemFulfilledEvent{
					OrderItemID:    item.ID,
					OrderID:        item.OrderID,
					OrganizationID: item.OrganizationID,
					Quantity:       item.Quantity,
					FulfilledAt:    now,
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit item fulfilled event")
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_item_id":      updated.ID.String(),
		"fulfillment_status": updated.FulfillmentStatus,
		"quantity_fulfilled": updated.QuantityFulfilled,
		"actor_id":           actorIDString(actorID),
	})
	s.logg.Info(logCtx, "order item provisioned")
	return updated, nil
}

// MarkUnprovisionable records that an item cannot be fulfilled, with the
// operator's reason.
func (s *service) MarkUnprovisionable(ctx context.Context, itemID uuid.UUID, actorID *uuid.UUID, reason string, notes *string) (*models.OrderItem, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	return s.Provision(ctx, itemID, actorID, ProvisionInput{
		Status:                enums.FulfillmentStatusUnprovisionable,
		Notes:                 notes,
		UnprovisionableReason: &reason,
	})
}

// UpdateTracking patches shipment fields on an order item. Status and
// quantities are never touched here.
func (s *service) UpdateTracking(ctx context.Context, itemID uuid.UUID, input TrackingInput) (*models.OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}

	fields := map[string]any{}
	if input.TrackingNumber != nil {
		fields["tracking_number"] = *input.TrackingNumber
	}
	if input.TrackingURL != nil {
		fields["tracking_url"] = *input.TrackingURL
	}
	if input.ExpectedDeliveryDate != nil {
		fields["expected_delivery_date"] = *input.ExpectedDeliveryDate
	}
	if input.DeliveredAt != nil {
		fields["delivered_at"] = *input.DeliveredAt
	}
	if input.Notes != nil {
		fields["fulfillment_notes"] = *input.Notes
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no tracking fields provided")
	}

	var updated *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		if err := repo.UpdateItem(ctx, item.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking")
		}
		if input.TrackingNumber != nil {
			item.TrackingNumber = input.TrackingNumber
		}
		if input.TrackingURL != nil {
			item.TrackingURL = input.TrackingURL
		}
		if input.ExpectedDeliveryDate != nil {
			item.ExpectedDeliveryDate = input.ExpectedDeliveryDate
		}
		if input.DeliveredAt != nil {
			item.DeliveredAt = input.DeliveredAt
		}
		if input.Notes != nil {
			item.FulfillmentNotes = input.Notes
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func actorIDString(actorID *uuid.UUID) string {
	if actorID == nil {
		return ""
	}
	return actorID.String()
}
