package extfulfillment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/metrics"
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

// WebhookInput is one inbound platform webhook delivery.
type WebhookInput struct {
	Payload   types.JSONMap
	Headers   types.JSONMap
	Signature *string
}

// Service canonicalizes platform webhooks into external fulfillment records.
type Service interface {
	Reconcile(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, input WebhookInput) (*models.ExternalFulfillment, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	extractors map[enums.FulfillmentPlatform]Extractor
	metrics    *metrics.PipelineMetrics
	logg       *logger.Logger
}

// NewService builds the external fulfillment reconciler.
func NewService(repo Repository, tx txRunner, outboxPub outboxPublisher, pipelineMetrics *metrics.PipelineMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("external fulfillment repository required")
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
	return &service{
		repo:       repo,
		tx:         tx,
		outbox:     outboxPub,
		extractors: NewExtractors(),
		metrics:    pipelineMetrics,
		logg:       logg,
	}, nil
}

// Reconcile upserts the canonical record for a webhook delivery. Redelivery
// of the same (platform, external order) updates the row in place; the
// database-level upsert keeps concurrent redeliveries from creating
// duplicates.
func (s *service) Reconcile(ctx context.Context, organizationID uuid.UUID, platform enums.FulfillmentPlatform, input WebhookInput) (*models.ExternalFulfillment, error) {
	if organizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	extractor, ok := s.extractors[platform]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported platform %q", platform))
	}
	if len(input.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook payload")
	}

	extraction, err := extractor.Extract(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "extract webhook payload")
	}
	status := enums.CanonicalFulfillmentStatus(extraction.RawStatus)

	record := &models.ExternalFulfillment{
		OrganizationID:        organizationID,
		Platform:              platform,
		ExternalOrderID:       extraction.OrderID,
		ExternalFulfillmentID: extraction.FulfillmentID,
		Status:                status,
		OrderData:             extraction.OrderData,
		FulfillmentData:       extraction.FulfillmentData,
		CustomerData:          extraction.CustomerData,
		ItemsData:             extraction.ItemsData,
		TrackingNumber:        extraction.TrackingNumber,
		TrackingURL:           extraction.TrackingURL,
		ExternalOrderedAt:     extraction.OrderedAt,
		ExternalFulfilledAt:   extraction.FulfilledAt,
		ExternalDeliveredAt:   extraction.DeliveredAt,
		WebhookSignature:      input.Signature,
		WebhookHeaders:        input.Headers,
	}

	var (
		result  *models.ExternalFulfillment
		created bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rowCreated, err := repo.Upsert(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert external fulfillment")
		}
		created = rowCreated

		stored, err := repo.FindByNaturalKey(ctx, organizationID, platform, extraction.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload external fulfillment")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventExternalFulfillmentSynced,
			AggregateType: enums.AggregateExternalFulfillment,
			AggregateID:   stored.ID,
			Version:       1,
			Data: payloads.ExternalFulfillmentSyncedEvent{
				ExternalFulfillmentID: stored.ID,
				OrganizationID:        organizationID,
				Platform:              platform,
				ExternalOrderID:       stored.ExternalOrderID,
				Status:                stored.Status,
				Created:               created,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit sync event")
		}

		result = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWebhookReconciled(platform.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"platform":          platform,
		"external_order_id": result.ExternalOrderID,
		"status":            result.Status,
		"created":           created,
	})
	s.logg.Info(logCtx, "external fulfillment reconciled")
	return result, nil
}
