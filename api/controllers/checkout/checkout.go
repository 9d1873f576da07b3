package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leomarchetti/offerstack-backend/api/responses"
	"github.com/leomarchetti/offerstack-backend/api/validators"
	internalorders "github.com/leomarchetti/offerstack-backend/internal/orders"
	internalpayments "github.com/leomarchetti/offerstack-backend/internal/payments"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
)

type completeRequest struct {
	ConfirmationToken string `json:"confirmation_token"`
}

// Complete materializes an order from the checkout session and settles
// payment against the gateway. Safe to retry; replays return the order
// already completed for the session.
func Complete(sessions internalpayments.Repository, ordersSvc internalorders.Service, paymentsSvc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || ordersSvc == nil || paymentsSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout services unavailable"))
			return
		}

		sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout session id"))
			return
		}

		var req completeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessions.FindSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session"))
			return
		}

		order, err := ordersSvc.Materialize(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err = paymentsSvc.CompleteOrder(r.Context(), order.ID, req.ConfirmationToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
