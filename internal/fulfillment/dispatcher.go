package fulfillment

import (
	"context"
	"fmt"

	"github.com/leomarchetti/offerstack-backend/internal/provisioning"
	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/metrics"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// Fulfillment data keys written by the dispatcher. Downstream consumers
// (reporting, back office) read these from fulfillment_data.
const (
	dataKeyAutoFulfilled   = "auto_fulfilled"
	dataKeyFulfillmentType = "fulfillment_type"
	dataKeyEmailSent       = "email_sent"
	dataKeyWebhookSent     = "webhook_sent"
	dataKeyAPIConfig       = "api_config"
)

type handlerFunc func(ctx context.Context, org *models.Organization, item *models.OrderItem) error

// Dispatcher routes each order item to its organization's fulfillment
// strategy after the order completes.
type Dispatcher interface {
	AutoFulfillOrder(ctx context.Context, order *models.Order) error
}

type dispatcher struct {
	repo        Repository
	provisioner provisioning.Service
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
	handlers    map[enums.FulfillmentMethod]handlerFunc
}

// NewDispatcher builds the fulfillment dispatcher. One handler exists per
// fulfillment method; an organization configured with an unknown method is a
// data error, not a silent fallback.
func NewDispatcher(repo Repository, provisioner provisioning.Service, pipelineMetrics *metrics.PipelineMetrics, logg *logger.Logger) (Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if provisioner == nil {
		return nil, fmt.Errorf("provisioning service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	d := &dispatcher{
		repo:        repo,
		provisioner: provisioner,
		metrics:     pipelineMetrics,
		logg:        logg,
	}
	d.handlers = map[enums.FulfillmentMethod]handlerFunc{
		enums.FulfillmentMethodAutomation:      d.handleAutomation,
		enums.FulfillmentMethodAPI:             d.handleAPI,
		enums.FulfillmentMethodExternalWebhook: d.handleExternalWebhook,
		enums.FulfillmentMethodHybrid:          d.handleHybrid,
		enums.FulfillmentMethodManual:          d.handleManual,
	}
	return d, nil
}

// AutoFulfillOrder is a no-op unless the organization opted in. It snapshots
// the organization's method and config onto the order, stamps each item's
// delivery method, then dispatches per item. Item failures are isolated: one
// failing item does not stop the rest.
func (d *dispatcher) AutoFulfillOrder(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	ctx = d.logg.WithOrderID(ctx, order.ID.String())

	org, err := d.repo.FindOrganization(ctx, order.OrganizationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if !org.AutoFulfillOrders {
		return nil
	}

	handler, ok := d.handlers[org.FulfillmentMethod]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown fulfillment method %q", org.FulfillmentMethod))
	}

	if err := d.repo.UpdateOrder(ctx, order.ID, map[string]any{
		"fulfillment_method": org.FulfillmentMethod,
		"fulfillment_config": org.FulfillmentConfig,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshot fulfillment config")
	}
	method := org.FulfillmentMethod
	order.FulfillmentMethod = &method
	order.FulfillmentConfig = org.FulfillmentConfig

	items, err := d.repo.FindOrderItems(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	for i := range items {
		item := &items[i]
		itemCtx := d.logg.WithField(ctx, "order_item_id", item.ID.String())

		if err := d.repo.UpdateItem(itemCtx, item.ID, map[string]any{
			"delivery_method": org.DefaultDeliveryMethod,
		}); err != nil {
			d.logg.Error(itemCtx, "setting delivery method", err)
			continue
		}
		deliveryMethod := org.DefaultDeliveryMethod
		item.DeliveryMethod = &deliveryMethod

		if err := handler(itemCtx, org, item); err != nil {
			d.logg.Error(itemCtx, "dispatching fulfillment for item", err)
		}
	}

	d.metrics.IncFulfillmentDispatched(org.FulfillmentMethod.String())
	d.logg.Info(ctx, "fulfillment dispatched")
	return nil
}

func (d *dispatcher) handleAutomation(ctx context.Context, org *models.Organization, item *models.OrderItem) error {
	deliveryMethod := enums.DeliveryMethod("")
	if item.DeliveryMethod != nil {
		deliveryMethod = *item.DeliveryMethod
	}

	switch deliveryMethod {
	case enums.DeliveryMethodInstantAccess:
		return d.provisionFull(ctx, item, types.JSONMap{
			dataKeyAutoFulfilled:   true,
			dataKeyFulfillmentType: "automation",
		}, "Automatically fulfilled via automation")

	case enums.DeliveryMethodEmailDelivery:
		return d.provisionFull(ctx, item, types.JSONMap{
			dataKeyAutoFulfilled:   true,
			dataKeyFulfillmentType: "automation",
			dataKeyEmailSent:       true,
		}, "Automatically fulfilled via email delivery")

	default:
		// shipping/pickup stay pending for manual handling
		d.logg.Info(ctx, "delivery method not automatable, item left pending")
		return nil
	}
}

func (d *dispatcher) handleAPI(ctx context.Context, org *models.Organization, item *models.OrderItem) error {
	return d.provisionFull(ctx, item, types.JSONMap{
		dataKeyAutoFulfilled:   true,
		dataKeyFulfillmentType: "api",
		dataKeyAPIConfig:       map[string]any(org.FulfillmentConfig),
	}, "Automatically fulfilled via API")
}

// handleExternalWebhook hands the item off to async webhook confirmation.
// Status deliberately stays at processing; the external platform's webhook
// moves it forward through the reconciler.
func (d *dispatcher) handleExternalWebhook(ctx context.Context, org *models.Organization, item *models.OrderItem) error {
	data := item.FulfillmentData.Merge(types.JSONMap{
		dataKeyAutoFulfilled:   true,
		dataKeyFulfillmentType: "webhook",
		dataKeyWebhookSent:     true,
	})
	if err := d.repo.UpdateItem(ctx, item.ID, map[string]any{
		"fulfillment_status": enums.FulfillmentStatusProcessing,
		"fulfillment_data":   data,
	}); err != nil {
		return err
	}
	item.FulfillmentStatus = enums.FulfillmentStatusProcessing
	item.FulfillmentData = data
	d.logg.Info(ctx, "item handed off to external webhook fulfillment")
	return nil
}

func (d *dispatcher) handleHybrid(ctx context.Context, org *models.Organization, item *models.OrderItem) error {
	autoTypes := org.AutoFulfillItemTypes()
	if item.OfferItem != nil && containsString(autoTypes, item.OfferItem.Type) {
		return d.handleAutomation(ctx, org, item)
	}
	d.logg.Info(ctx, "item type not auto-fulfillable, left for manual handling")
	return nil
}

func (d *dispatcher) handleManual(ctx context.Context, org *models.Organization, item *models.OrderItem) error {
	d.logg.Info(ctx, "manual fulfillment, no automatic action")
	return nil
}

func (d *dispatcher) provisionFull(ctx context.Context, item *models.OrderItem, metadata types.JSONMap, notes string) error {
	quantity := item.Quantity
	_, err := d.provisioner.Provision(ctx, item.ID, nil, provisioning.ProvisionInput{
		Status:            enums.FulfillmentStatusFulfilled,
		QuantityFulfilled: &quantity,
		Notes:             &notes,
		Metadata:          metadata,
	})
	return err
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
