package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leomarchetti/offerstack-backend/api/controllers"
	checkoutcontrollers "github.com/leomarchetti/offerstack-backend/api/controllers/checkout"
	provisioningcontrollers "github.com/leomarchetti/offerstack-backend/api/controllers/provisioning"
	webhookcontrollers "github.com/leomarchetti/offerstack-backend/api/controllers/webhooks"
	"github.com/leomarchetti/offerstack-backend/api/middleware"
	"github.com/leomarchetti/offerstack-backend/internal/extfulfillment"
	"github.com/leomarchetti/offerstack-backend/internal/orders"
	"github.com/leomarchetti/offerstack-backend/internal/payments"
	"github.com/leomarchetti/offerstack-backend/internal/provisioning"
	"github.com/leomarchetti/offerstack-backend/pkg/config"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	pubsubP controllers.Pinger,
	sessionsRepo payments.Repository,
	ordersService orders.Service,
	paymentsService payments.Service,
	provisioningService provisioning.Service,
	extfulfillmentService extfulfillment.Service,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP controllers.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, pubsubP))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		var dedupStore redis.DedupStore
		if redisClient != nil {
			dedupStore = redisClient
		}
		r.With(middleware.WebhookDedup(dedupStore, cfg.Fulfillment.WebhookDedupTTL, logg)).
			Post("/fulfillment/{platform}", webhookcontrollers.Fulfillment(extfulfillmentService, logg))
	})

	r.Route("/api/v1/checkout-sessions", func(r chi.Router) {
		r.Post("/{id}/complete", checkoutcontrollers.Complete(sessionsRepo, ordersService, paymentsService, logg))
	})

	r.Route("/api/v1/order-items", func(r chi.Router) {
		r.Post("/{id}/provision", provisioningcontrollers.Provision(provisioningService, logg))
		r.Post("/{id}/unprovisionable", provisioningcontrollers.MarkUnprovisionable(provisioningService, logg))
		r.Patch("/{id}/tracking", provisioningcontrollers.UpdateTracking(provisioningService, logg))
	})

	return r
}
