package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a closed checkout session into a durable order.
type Service interface {
	Materialize(ctx context.Context, session *models.CheckoutSession) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Materialize creates the order for a checkout session, or returns the
// existing one untouched. The insert races on the unique
// (organization_id, checkout_session_id) index, so concurrent double
// submission of the same session resolves to a single row. Order items are
// created only on the invocation that actually inserted the order.
func (s *service) Materialize(ctx context.Context, session *models.CheckoutSession) (*models.Order, error) {
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session required")
	}
	if session.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id required")
	}
	if session.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}

	order := &models.Order{
		OrganizationID:    session.OrganizationID,
		CheckoutSessionID: session.ID,
		CustomerID:        session.CustomerID,
		Status:            enums.OrderStatusPending,
		Currency:          session.Currency,
	}

	var inserted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		inserted, err = repo.InsertOrderIgnoreConflict(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if !inserted {
			return nil
		}

		items := make([]models.OrderItem, 0, len(session.LineItems))
		for _, line := range session.LineItems {
			items = append(items, materializeOrderItem(order, line))
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		existing, err := s.repo.FindBySessionKey(ctx, session.OrganizationID, session.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing order")
		}
		logCtx := s.logg.WithOrderID(ctx, existing.ID.String())
		s.logg.Info(logCtx, "order already materialized for checkout session")
		return existing, nil
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order materialized")
	return order, nil
}

// materializeOrderItem copies one checkout line into a pending order item
// with empty fulfillment metadata. Not idempotent on its own; the order-level
// insert gate guarantees it runs once per line.
func materializeOrderItem(order *models.Order, line models.CheckoutLineItem) models.OrderItem {
	quantity := line.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return models.OrderItem{
		OrganizationID:    order.OrganizationID,
		OrderID:           order.ID,
		PriceID:           line.PriceID,
		OfferItemID:       line.OfferItemID,
		Quantity:          quantity,
		QuantityFulfilled: 0,
		QuantityRemaining: quantity,
		FulfillmentStatus: enums.FulfillmentStatusPending,
		FulfillmentData:   types.JSONMap{},
	}
}
