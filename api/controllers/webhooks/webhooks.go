package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leomarchetti/offerstack-backend/api/responses"
	internalextfulfillment "github.com/leomarchetti/offerstack-backend/internal/extfulfillment"
	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

const organizationIDHeader = "X-Organization-Id"

// Signature headers by platform convention; first present wins.
var signatureHeaders = []string{
	"X-Shopify-Hmac-Sha256",
	"X-Etsy-Signature",
	"X-CF-Signature",
	"X-WC-Webhook-Signature",
	"X-Amz-Sns-Signature",
	"X-Webhook-Signature",
}

// Fulfillment ingests a delivery-status webhook from an external commerce
// platform and reconciles it into the local fulfillment mirror.
func Fulfillment(svc internalextfulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		platform, err := enums.ParseFulfillmentPlatform(chi.URLParam(r, "platform"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported platform"))
			return
		}

		organizationID, err := resolveOrganizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook body"))
			return
		}

		var payload types.JSONMap
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		record, err := svc.Reconcile(r.Context(), organizationID, platform, internalextfulfillment.WebhookInput{
			Payload:   payload,
			Headers:   headerMap(r.Header),
			Signature: extractSignature(r.Header),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func resolveOrganizationID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("organization_id"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get(organizationIDHeader))
	}
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "organization_id required")
	}
	organizationID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid organization_id")
	}
	return organizationID, nil
}

func extractSignature(header http.Header) *string {
	for _, name := range signatureHeaders {
		if value := strings.TrimSpace(header.Get(name)); value != "" {
			return &value
		}
	}
	return nil
}

func headerMap(header http.Header) types.JSONMap {
	out := types.JSONMap{}
	for name, values := range header {
		if len(values) == 0 {
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}
