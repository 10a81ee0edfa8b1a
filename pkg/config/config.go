package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VIVAFLOWER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VIVAFLOWER_DB_DSN"
	EnvDBHost = "VIVAFLOWER_DB_HOST"
	EnvDBUser = "VIVAFLOWER_DB_USER"
	EnvDBName = "VIVAFLOWER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Square       SquareConfig
	Email        EmailConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	// prod never falls back to the log-only mailer.
	if cfg.App.IsProd() && cfg.Email.SMTPHost == "" {
		return nil, fmt.Errorf("VIVAFLOWER_SMTP_HOST is required in prod")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VIVAFLOWER_APP_ENV" required:"true"`
	Port         string `envconfig:"VIVAFLOWER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VIVAFLOWER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"VIVAFLOWER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"VIVAFLOWER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VIVAFLOWER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"VIVAFLOWER_DB_DSN"`

	LegacyHost     string `envconfig:"VIVAFLOWER_DB_HOST"`
	LegacyPort     int    `envconfig:"VIVAFLOWER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VIVAFLOWER_DB_USER"`
	LegacyPassword string `envconfig:"VIVAFLOWER_DB_PASSWORD"`
	LegacyName     string `envconfig:"VIVAFLOWER_DB_NAME"`
	LegacySSLMode  string `envconfig:"VIVAFLOWER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIVAFLOWER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIVAFLOWER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIVAFLOWER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIVAFLOWER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VIVAFLOWER_REDIS_URL"`
	Address      string        `envconfig:"VIVAFLOWER_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"VIVAFLOWER_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIVAFLOWER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIVAFLOWER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIVAFLOWER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIVAFLOWER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIVAFLOWER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIVAFLOWER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VIVAFLOWER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VIVAFLOWER_JWT_ISSUER" default:"vivaflower"`
	ExpirationMinutes int    `envconfig:"VIVAFLOWER_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"VIVAFLOWER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig bounds per-client request rates on the public write endpoints.
type RateLimitConfig struct {
	Window         time.Duration `envconfig:"VIVAFLOWER_RATE_LIMIT_WINDOW" default:"1m"`
	OrderCreates   int           `envconfig:"VIVAFLOWER_RATE_LIMIT_ORDER_CREATES" default:"10"`
	PaymentReports int           `envconfig:"VIVAFLOWER_RATE_LIMIT_PAYMENT_CALLBACKS" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VIVAFLOWER_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"VIVAFLOWER_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VIVAFLOWER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VIVAFLOWER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VIVAFLOWER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"VIVAFLOWER_PUBSUB_ORDERS_TOPIC" default:"vf-order-events"`
	OrdersSubscription    string `envconfig:"VIVAFLOWER_PUBSUB_ORDERS_SUBSCRIPTION" default:"vf-order-events-notifications"`
	AnalyticsSubscription string `envconfig:"VIVAFLOWER_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"vf-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset    string `envconfig:"VIVAFLOWER_BIGQUERY_DATASET" default:"vivaflower"`
	SalesTable string `envconfig:"VIVAFLOWER_BIGQUERY_SALES_TABLE" default:"product_sales"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"VIVAFLOWER_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"VIVAFLOWER_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"VIVAFLOWER_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"VIVAFLOWER_SQUARE_CURRENCY" default:"USD"`

	// WebhookSignatureKey signs payment callbacks. Callbacks are refused while it is empty.
	WebhookSignatureKey string `envconfig:"VIVAFLOWER_SQUARE_WEBHOOK_SIGNATURE_KEY"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// Enabled reports whether e_wallet payments can be handed to Square.
func (s SquareConfig) Enabled() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.LocationID) != ""
}

type EmailConfig struct {
	SMTPHost     string `envconfig:"VIVAFLOWER_SMTP_HOST"`
	SMTPPort     int    `envconfig:"VIVAFLOWER_SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"VIVAFLOWER_SMTP_USERNAME"`
	SMTPPassword string `envconfig:"VIVAFLOWER_SMTP_PASSWORD"`
	From         string `envconfig:"VIVAFLOWER_EMAIL_FROM" default:"no-reply@vivaflower.local"`
	AdminAddress string `envconfig:"VIVAFLOWER_ADMIN_EMAIL" default:"admin@vivaflower.local"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VIVAFLOWER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VIVAFLOWER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VIVAFLOWER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VIVAFLOWER_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"VIVAFLOWER_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
