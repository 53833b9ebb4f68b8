package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	Cart     CartConfig
	Auth     AuthConfig
	GCP      GCPConfig
	GCS      GCSConfig
	Media    MediaConfig
	PubSub   PubSubConfig
	Checkout CheckoutConfig
	Admin    AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	CORSOrigins        []string      `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
	CheckoutRateWindow time.Duration `envconfig:"STOREFRONT_CHECKOUT_RATE_WINDOW" default:"1m"`
	CheckoutRateLimit  int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT" default:"10"`
	ShutdownTimeout    time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"15s"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	Backend          string        `envconfig:"STOREFRONT_CART_BACKEND" default:"sql"`
	IdleTTL          time.Duration `envconfig:"STOREFRONT_CART_IDLE_TTL" default:"30m"`
	SnapshotTTL      time.Duration `envconfig:"STOREFRONT_CART_SNAPSHOT_TTL" default:"720h"`
	PlaceholderImage string        `envconfig:"STOREFRONT_CART_PLACEHOLDER_IMAGE" default:"https://via.placeholder.com/150"`
}

type AuthConfig struct {
	Provider  string        `envconfig:"STOREFRONT_AUTH_PROVIDER" default:"firebase"`
	JWTSecret string        `envconfig:"STOREFRONT_JWT_SECRET"`
	JWTIssuer string        `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	JWTTTL    time.Duration `envconfig:"STOREFRONT_JWT_TTL" default:"24h"`
}

type AdminConfig struct {
	Emails []string `envconfig:"STOREFRONT_ADMIN_EMAILS"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsFile string `envconfig:"STOREFRONT_GCP_CREDENTIALS_FILE"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"STOREFRONT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"STOREFRONT_MEDIA_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabytes into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC"`
}

type CheckoutConfig struct {
	ShippingFlatFee       string `envconfig:"STOREFRONT_SHIPPING_FLAT_FEE" default:"5.00"`
	ShippingFreeThreshold string `envconfig:"STOREFRONT_SHIPPING_FREE_THRESHOLD" default:"50.00"`
	LowStockThreshold     int    `envconfig:"STOREFRONT_LOW_STOCK_THRESHOLD" default:"5"`
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Cart.Backend)) {
	case CartBackendMemory, CartBackendSQL:
	case CartBackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=%s requires %s or %s", EnvCartBackend, CartBackendRedis, EnvRedisURL, EnvRedisAddr)
		}
	case CartBackendFirestore:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s=%s requires %s", EnvCartBackend, CartBackendFirestore, EnvGCPProjectID)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvCartBackend, c.Cart.Backend)
	}

	switch strings.ToLower(strings.TrimSpace(c.Auth.Provider)) {
	case AuthProviderFirebase:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s=%s requires %s", EnvAuthProvider, AuthProviderFirebase, EnvGCPProjectID)
		}
	case AuthProviderJWT:
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			return fmt.Errorf("%s=%s requires %s", EnvAuthProvider, AuthProviderJWT, EnvJWTSecret)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvAuthProvider, c.Auth.Provider)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
