package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leomarchetti/offerstack-backend/api/routes"
	"github.com/leomarchetti/offerstack-backend/internal/extfulfillment"
	"github.com/leomarchetti/offerstack-backend/internal/fulfillment"
	"github.com/leomarchetti/offerstack-backend/internal/notifications"
	"github.com/leomarchetti/offerstack-backend/internal/orders"
	"github.com/leomarchetti/offerstack-backend/internal/payments"
	"github.com/leomarchetti/offerstack-backend/internal/provisioning"
	"github.com/leomarchetti/offerstack-backend/pkg/config"
	"github.com/leomarchetti/offerstack-backend/pkg/db"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
	"github.com/leomarchetti/offerstack-backend/pkg/mailer"
	"github.com/leomarchetti/offerstack-backend/pkg/metrics"
	"github.com/leomarchetti/offerstack-backend/pkg/migrate"
	"github.com/leomarchetti/offerstack-backend/pkg/outbox"
	"github.com/leomarchetti/offerstack-backend/pkg/pubsub"
	"github.com/leomarchetti/offerstack-backend/pkg/redis"
	"github.com/leomarchetti/offerstack-backend/pkg/stripe"
)

func main() {
	bootCtx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	mustBoot(bootCtx, logg, "failed to load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	mustBoot(bootCtx, logg, "failed to bootstrap database", err)
	defer closeResource(bootCtx, logg, "database", dbClient.Close)

	err = migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient)
	mustBoot(bootCtx, logg, "failed to run dev migrations", err)

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	mustBoot(bootCtx, logg, "failed to bootstrap redis", err)
	defer closeResource(bootCtx, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(bootCtx, cfg.GCP, cfg.PubSub, logg)
	mustBoot(bootCtx, logg, "failed to bootstrap pubsub", err)
	defer closeResource(bootCtx, logg, "pubsub", pubsubClient.Close)

	stripeClient, err := stripe.NewClient(bootCtx, cfg.Stripe, logg)
	mustBoot(bootCtx, logg, "failed to bootstrap stripe", err)

	mailerClient, err := mailer.New(bootCtx, cfg.Sendgrid, logg)
	mustBoot(bootCtx, logg, "failed to bootstrap mailer", err)

	promRegistry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(promRegistry)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, logg)
	mustBoot(bootCtx, logg, "failed to create orders service", err)

	provisioningService, err := provisioning.NewService(provisioning.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	mustBoot(bootCtx, logg, "failed to create provisioning service", err)

	dispatcher, err := fulfillment.NewDispatcher(fulfillment.NewRepository(dbClient.DB()), provisioningService, pipelineMetrics, logg)
	mustBoot(bootCtx, logg, "failed to create fulfillment dispatcher", err)

	notificationsService, err := notifications.NewService(ordersRepo, mailerClient, cfg.Fulfillment.NotificationTemplateID, pipelineMetrics, logg)
	mustBoot(bootCtx, logg, "failed to create notifications service", err)

	paymentsRepo := payments.NewRepository(dbClient.DB())
	paymentsService, err := payments.NewService(
		ordersRepo,
		paymentsRepo,
		dbClient,
		payments.NewStripeClient(stripeClient),
		outboxService,
		dispatcher,
		notificationsService,
		pipelineMetrics,
		logg,
	)
	mustBoot(bootCtx, logg, "failed to create payments service", err)

	extfulfillmentService, err := extfulfillment.NewService(
		extfulfillment.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		pipelineMetrics,
		logg,
	)
	mustBoot(bootCtx, logg, "failed to create external fulfillment service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubClient,
			paymentsRepo,
			ordersService,
			paymentsService,
			provisioningService,
			extfulfillmentService,
			promRegistry,
		),
	}

	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func mustBoot(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func closeResource(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
