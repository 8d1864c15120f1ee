package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "atelier"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ATELIER_DB_DSN"
	EnvDBHost = "ATELIER_DB_HOST"
	EnvDBUser = "ATELIER_DB_USER"
	EnvDBName = "ATELIER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Stripe  StripeConfig
	Invoice InvoiceConfig
	Storage StorageConfig
	GCP     GCPConfig
	Admin   AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATELIER_APP_ENV" required:"true"`
	Port         string `envconfig:"ATELIER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATELIER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATELIER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ATELIER_DB_DSN"`
	Driver string `envconfig:"ATELIER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ATELIER_DB_HOST"`
	LegacyPort     int    `envconfig:"ATELIER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ATELIER_DB_USER"`
	LegacyPassword string `envconfig:"ATELIER_DB_PASSWORD"`
	LegacyName     string `envconfig:"ATELIER_DB_NAME"`
	LegacySSLMode  string `envconfig:"ATELIER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATELIER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATELIER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATELIER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ATELIER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ATELIER_REDIS_ADDR"`
	Password     string        `envconfig:"ATELIER_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATELIER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATELIER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATELIER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATELIER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATELIER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATELIER_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"ATELIER_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type StripeConfig struct {
	APIKey  string        `envconfig:"ATELIER_STRIPE_API_KEY"`
	Env     string        `envconfig:"ATELIER_STRIPE_ENV" default:"test"`
	Timeout time.Duration `envconfig:"ATELIER_STRIPE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// InvoiceConfig tunes the invoice pipeline, the durable job loop, and the
// readiness poller defaults handed to clients.
type InvoiceConfig struct {
	SellerName     string        `envconfig:"ATELIER_INVOICE_SELLER_NAME" default:"Atelier Mora"`
	Workers        int           `envconfig:"ATELIER_INVOICE_WORKERS" default:"4"`
	QueueDepth     int           `envconfig:"ATELIER_INVOICE_QUEUE_DEPTH" default:"64"`
	JobBatchSize   int           `envconfig:"ATELIER_INVOICE_JOB_BATCH_SIZE" default:"25"`
	JobPollMS      int           `envconfig:"ATELIER_INVOICE_JOB_POLL_MS" default:"1000"`
	JobMaxAttempts int           `envconfig:"ATELIER_INVOICE_JOB_MAX_ATTEMPTS" default:"8"`
	PollAttempts   int           `envconfig:"ATELIER_INVOICE_POLL_ATTEMPTS" default:"12"`
	PollInterval   time.Duration `envconfig:"ATELIER_INVOICE_POLL_INTERVAL" default:"5s"`
	MetricsPort    string        `envconfig:"ATELIER_INVOICE_METRICS_PORT" default:"9090"`
}

const (
	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"
)

type StorageConfig struct {
	Backend       string `envconfig:"ATELIER_STORAGE_BACKEND" default:"local"`
	LocalDir      string `envconfig:"ATELIER_STORAGE_LOCAL_DIR" default:"./invoices"`
	Bucket        string `envconfig:"ATELIER_STORAGE_BUCKET"`
	PublicBaseURL string `envconfig:"ATELIER_STORAGE_PUBLIC_BASE_URL" default:"/invoices"`
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageBackendLocal:
		if s.LocalDir == "" {
			return fmt.Errorf("%s storage requires ATELIER_STORAGE_LOCAL_DIR", s.Backend)
		}
	case StorageBackendGCS:
		if s.Bucket == "" {
			return fmt.Errorf("%s storage requires ATELIER_STORAGE_BUCKET", s.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ATELIER_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"ATELIER_GCP_CREDENTIALS_JSON"`
}

type AdminConfig struct {
	Token string `envconfig:"ATELIER_ADMIN_TOKEN"`
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
