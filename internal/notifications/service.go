package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/internal/orders"
	"github.com/leomarchetti/offerstack-backend/pkg/db/models"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/metrics"
)

// Mailer delivers one templated notification to one recipient.
type Mailer interface {
	Send(ctx context.Context, recipient string, templateID string, payload map[string]any) error
}

// Service sends the one-shot admin notification for a completed order.
type Service interface {
	NotifyOrder(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	orders     orders.Repository
	mailer     Mailer
	templateID string
	metrics    *metrics.PipelineMetrics
	logg       *logger.Logger
}

// NewService builds the notification dispatcher.
func NewService(ordersRepo orders.Repository, mailer Mailer, templateID string, pipelineMetrics *metrics.PipelineMetrics, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if templateID == "" {
		return nil, fmt.Errorf("notification template id required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:     ordersRepo,
		mailer:     mailer,
		templateID: templateID,
		metrics:    pipelineMetrics,
		logg:       logg,
	}, nil
}

// NotifyOrder sends the fulfillment notification at most once per order. Send
// failures are returned to the caller; the notified flag is only set after
// every recipient succeeded, so a partial failure is retried whole.
func (s *service) NotifyOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.FulfillmentNotified {
		return nil
	}
	if order.Organization == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "order organization not loaded")
	}

	recipients := resolveRecipients(order.Organization)
	if len(recipients) == 0 {
		s.logg.Warn(ctx, "no notification recipients resolved for organization")
		return nil
	}

	payload := map[string]any{
		"order_id":     order.ID.String(),
		"total_amount": order.TotalAmount.String(),
		"currency":     order.Currency,
		"item_count":   len(order.Items),
	}
	if order.CompletedAt != nil {
		payload["completed_at"] = order.CompletedAt.Format(time.RFC3339)
	}

	var sendErr error
	for _, recipient := range recipients {
		if err := s.mailer.Send(ctx, recipient, s.templateID, payload); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "recipient", recipient), "sending order notification", err)
			sendErr = multierr.Append(sendErr, err)
		}
	}
	if sendErr != nil {
		s.metrics.IncNotificationFailure()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, sendErr, "send order notification")
	}

	now := time.Now()
	if err := s.orders.UpdateOrder(ctx, order.ID, map[string]any{
		"fulfillment_notified":    true,
		"fulfillment_notified_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order notified")
	}

	s.logg.Info(s.logg.WithField(ctx, "recipient_count", len(recipients)), "order notification sent")
	return nil
}

// resolveRecipients applies the three-tier fallback: the configured
// notification address, else admin users, else every user, deduplicated.
func resolveRecipients(org *models.Organization) []string {
	if org.FulfillmentNotificationEmail != nil && *org.FulfillmentNotificationEmail != "" {
		return []string{*org.FulfillmentNotificationEmail}
	}

	var admins, all []string
	for _, user := range org.Users {
		if user.Email == "" {
			continue
		}
		all = append(all, user.Email)
		if user.Role.IsAdmin() {
			admins = append(admins, user.Email)
		}
	}
	if len(admins) > 0 {
		return dedupe(admins)
	}
	return dedupe(all)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
