package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leomarchetti/offerstack-backend/api/responses"
	pkgerrors "github.com/leomarchetti/offerstack-backend/pkg/errors"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	pkgredis "github.com/leomarchetti/offerstack-backend/pkg/redis"
)

// WebhookDedup short-circuits redelivered webhook payloads. External
// platforms retry deliveries aggressively, so an identical body for the
// same platform within the TTL window is acknowledged without touching
// the pipeline again.
func WebhookDedup(store pkgredis.DedupStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			platform := chi.URLParam(r, "platform")
			key := store.WebhookKey(platform, hashPayload(body))

			fresh, setErr := store.SetNX(r.Context(), key, time.Now().UTC().Format(time.RFC3339), ttl)
			if setErr != nil {
				// Redis being down must not drop webhooks; let the
				// pipeline's own upsert semantics absorb the replay.
				if logg != nil {
					logg.Error(r.Context(), "webhook dedup check failed", setErr)
				}
				next.ServeHTTP(w, r)
				return
			}

			if !fresh {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"platform": platform})
					logg.Info(ctx, "duplicate webhook delivery acknowledged")
				}
				responses.WriteSuccess(w, map[string]any{"duplicate": true})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
