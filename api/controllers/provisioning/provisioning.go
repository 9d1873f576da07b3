package provisioning

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/api/responses"
	"github.com/leomarchetti/offerstack-backend/api/validators"
	internalprovisioning "github.com/leomarchetti/offerstack-backend/internal/provisioning"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

type provisionRequest struct {
	Status            string        `json:"status" validate:"required"`
	QuantityFulfilled *int          `json:"quantity_fulfilled,omitempty"`
	Notes             *string       `json:"notes,omitempty"`
	Metadata          types.JSONMap `json:"metadata,omitempty"`
	TrackingNumber    *string       `json:"tracking_number,omitempty"`
	TrackingURL       *string       `json:"tracking_url,omitempty"`
	DeliveryAssets    types.JSONMap `json:"delivery_assets,omitempty"`
	ActorID           *string       `json:"actor_id,omitempty" validate:"omitempty,uuid"`
}

type unprovisionableRequest struct {
	Reason  string  `json:"reason" validate:"required"`
	Notes   *string `json:"notes,omitempty"`
	ActorID *string `json:"actor_id,omitempty" validate:"omitempty,uuid"`
}

type trackingRequest struct {
	TrackingNumber       *string    `json:"tracking_number,omitempty"`
	TrackingURL          *string    `json:"tracking_url,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	DeliveredAt          *time.Time `json:"delivered_at,omitempty"`
	Notes                *string    `json:"notes,omitempty"`
}

// Provision applies a fulfillment state transition to one order item.
func Provision(svc internalprovisioning.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provisioning service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req provisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseFulfillmentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment status"))
			return
		}

		actorID, err := parseActorID(req.ActorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Provision(r.Context(), itemID, actorID, internalprovisioning.ProvisionInput{
			Status:            status,
			QuantityFulfilled: req.QuantityFulfilled,
			Notes:             req.Notes,
			Metadata:          req.Metadata,
			TrackingNumber:    req.TrackingNumber,
			TrackingURL:       req.TrackingURL,
			DeliveryAssets:    req.DeliveryAssets,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// MarkUnprovisionable flags an order item the organization cannot deliver.
func MarkUnprovisionable(svc internalprovisioning.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provisioning service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req unprovisionableRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := parseActorID(req.ActorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.MarkUnprovisionable(r.Context(), itemID, actorID, req.Reason, req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// UpdateTracking patches shipment fields on an order item.
func UpdateTracking(svc internalprovisioning.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provisioning service unavailable"))
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req trackingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateTracking(r.Context(), itemID, internalprovisioning.TrackingInput{
			TrackingNumber:       req.TrackingNumber,
			TrackingURL:          req.TrackingURL,
			ExpectedDeliveryDate: req.ExpectedDeliveryDate,
			DeliveredAt:          req.DeliveredAt,
			Notes:                req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item id")
	}
	return itemID, nil
}

func parseActorID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	actorID, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid actor id")
	}
	return &actorID, nil
}
