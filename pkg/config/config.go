package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "OFFERSTACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Fulfillment  FulfillmentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("OFFERSTACK_DB_DSN is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OFFERSTACK_APP_ENV" required:"true"`
	Port         string `envconfig:"OFFERSTACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OFFERSTACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OFFERSTACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"OFFERSTACK_DB_DSN"`

	MaxOpenConns    int           `envconfig:"OFFERSTACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OFFERSTACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OFFERSTACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OFFERSTACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OFFERSTACK_REDIS_URL"`
	Address      string        `envconfig:"OFFERSTACK_REDIS_ADDR"`
	Password     string        `envconfig:"OFFERSTACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"OFFERSTACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OFFERSTACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OFFERSTACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OFFERSTACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OFFERSTACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OFFERSTACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OFFERSTACK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"OFFERSTACK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"OFFERSTACK_PUBSUB_DOMAIN_TOPIC" default:"offerstack-domain-events"`
	DomainSubscription string `envconfig:"OFFERSTACK_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OFFERSTACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OFFERSTACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OFFERSTACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"OFFERSTACK_STRIPE_API_KEY"`
	Secret string `envconfig:"OFFERSTACK_STRIPE_SECRET"`
	Env    string `envconfig:"OFFERSTACK_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"OFFERSTACK_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"OFFERSTACK_SENDGRID_FROM_EMAIL"`
}

type FulfillmentConfig struct {
	NotificationTemplateID string        `envconfig:"OFFERSTACK_FULFILLMENT_NOTIFICATION_TEMPLATE_ID" default:"order-fulfillment-admin"`
	WebhookDedupTTL        time.Duration `envconfig:"OFFERSTACK_FULFILLMENT_WEBHOOK_DEDUP_TTL" default:"168h"`
}
