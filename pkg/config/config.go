package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Admin          AdminConfig
	Password       PasswordConfig
	LoginRateLimit LoginRateLimitConfig
	FeatureFlags   FeatureFlagsConfig
	Geo            GeoConfig
	TravelFee      TravelFeeConfig
	Quote          QuoteConfig
	Storage        StorageConfig
	DocStore       DocStoreConfig
	SMTP           SMTPConfig
	Stripe         StripeConfig
	Stock          StockConfig
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
	Env          string `envconfig:"RECOPHONE_APP_ENV" required:"true"`
	Port         string `envconfig:"RECOPHONE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RECOPHONE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RECOPHONE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RECOPHONE_DB_DSN"`
	Driver string `envconfig:"RECOPHONE_DB_DRIVER" default:"sqlite"`

	LegacyHost     string `envconfig:"RECOPHONE_DB_HOST"`
	LegacyPort     int    `envconfig:"RECOPHONE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RECOPHONE_DB_USER"`
	LegacyPassword string `envconfig:"RECOPHONE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RECOPHONE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RECOPHONE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RECOPHONE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"RECOPHONE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"RECOPHONE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RECOPHONE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RECOPHONE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RECOPHONE_REDIS_ADDR"`
	Password     string        `envconfig:"RECOPHONE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RECOPHONE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RECOPHONE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RECOPHONE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RECOPHONE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RECOPHONE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RECOPHONE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RECOPHONE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RECOPHONE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RECOPHONE_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// Expiration returns the session token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type AdminConfig struct {
	Username     string `envconfig:"RECOPHONE_ADMIN_USERNAME" required:"true"`
	PasswordHash string `envconfig:"RECOPHONE_ADMIN_PASSWORD_HASH" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RECOPHONE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RECOPHONE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RECOPHONE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RECOPHONE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RECOPHONE_ARGON_KEY_LEN" default:"32"`
}

type LoginRateLimitConfig struct {
	Window  time.Duration `envconfig:"RECOPHONE_LOGIN_RATE_LIMIT_WINDOW" default:"15m"`
	IPLimit int           `envconfig:"RECOPHONE_LOGIN_RATE_LIMIT_IP_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RECOPHONE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RECOPHONE_AUTO_MIGRATE" default:"false"`
}

type GeoConfig struct {
	NominatimBaseURL string        `envconfig:"RECOPHONE_GEO_NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	OSRMBaseURL      string        `envconfig:"RECOPHONE_GEO_OSRM_BASE_URL" default:"https://router.project-osrm.org"`
	CountryCodes     string        `envconfig:"RECOPHONE_GEO_COUNTRY_CODES" default:"be"`
	UserAgent        string        `envconfig:"RECOPHONE_GEO_USER_AGENT" default:"RecoPhone/1.0 (hello@recophone.be)"`
	Timeout          time.Duration `envconfig:"RECOPHONE_GEO_TIMEOUT" default:"10s"`
}

type TravelFeeConfig struct {
	FreeRadiusKm float64       `envconfig:"RECOPHONE_TRAVEL_FREE_RADIUS_KM" default:"15"`
	RatePerKm    float64       `envconfig:"RECOPHONE_TRAVEL_RATE_EUR_PER_KM" default:"3.5"`
	Debounce     time.Duration `envconfig:"RECOPHONE_TRAVEL_DEBOUNCE" default:"600ms"`
}

type QuoteConfig struct {
	DraftTTL         time.Duration `envconfig:"RECOPHONE_QUOTE_DRAFT_TTL" default:"15m"`
	AutosaveDebounce time.Duration `envconfig:"RECOPHONE_QUOTE_AUTOSAVE_DEBOUNCE" default:"800ms"`
}

type StorageConfig struct {
	Backend     string        `envconfig:"RECOPHONE_STORAGE_BACKEND" default:"local"`
	LocalRoot   string        `envconfig:"RECOPHONE_STORAGE_LOCAL_ROOT" default:"./storage"`
	FTPHost     string        `envconfig:"RECOPHONE_STORAGE_FTP_HOST"`
	FTPPort     int           `envconfig:"RECOPHONE_STORAGE_FTP_PORT" default:"21"`
	FTPUser     string        `envconfig:"RECOPHONE_STORAGE_FTP_USER"`
	FTPPassword string        `envconfig:"RECOPHONE_STORAGE_FTP_PASSWORD"`
	FTPRoot     string        `envconfig:"RECOPHONE_STORAGE_FTP_ROOT" default:"/"`
	FTPTimeout  time.Duration `envconfig:"RECOPHONE_STORAGE_FTP_TIMEOUT" default:"30s"`
}

const (
	StorageBackendLocal = "local"
	StorageBackendFTP   = "ftp"
)

func (s StorageConfig) validate() error {
	switch strings.ToLower(s.Backend) {
	case StorageBackendLocal:
		if s.LocalRoot == "" {
			return fmt.Errorf("%s is required for the local storage backend", EnvStorageLocalRoot)
		}
	case StorageBackendFTP:
		if s.FTPHost == "" || s.FTPUser == "" {
			return fmt.Errorf("%s and %s are required for the ftp storage backend", EnvStorageFTPHost, EnvStorageFTPUser)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

type DocStoreConfig struct {
	UploadURL string        `envconfig:"RECOPHONE_DOCSTORE_UPLOAD_URL"`
	Token     string        `envconfig:"RECOPHONE_DOCSTORE_TOKEN"`
	Timeout   time.Duration `envconfig:"RECOPHONE_DOCSTORE_TIMEOUT" default:"30s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"RECOPHONE_SMTP_HOST"`
	Port     int    `envconfig:"RECOPHONE_SMTP_PORT" default:"587"`
	Username string `envconfig:"RECOPHONE_SMTP_USERNAME"`
	Password string `envconfig:"RECOPHONE_SMTP_PASSWORD"`
	From     string `envconfig:"RECOPHONE_SMTP_FROM" default:"hello@recophone.be"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"RECOPHONE_STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"RECOPHONE_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"RECOPHONE_STRIPE_ENV" default:"test"`
	SuccessURL    string `envconfig:"RECOPHONE_STRIPE_SUCCESS_URL" default:"https://recophone.be/merci"`
	CancelURL     string `envconfig:"RECOPHONE_STRIPE_CANCEL_URL" default:"https://recophone.be/panier"`

	// Subscription plan references, either price_... or prod_... ids.
	PlanEssentiel string `envconfig:"RECOPHONE_STRIPE_PLAN_ESSENTIEL"`
	PlanFamilial  string `envconfig:"RECOPHONE_STRIPE_PLAN_FAMILIAL"`
	PlanZen       string `envconfig:"RECOPHONE_STRIPE_PLAN_ZEN"`
}

// PlanRef resolves a plan key to its configured Stripe reference.
func (s StripeConfig) PlanRef(plan string) string {
	switch strings.TrimSpace(strings.ToLower(plan)) {
	case "essentiel":
		return strings.TrimSpace(s.PlanEssentiel)
	case "familial":
		return strings.TrimSpace(s.PlanFamilial)
	case "zen":
		return strings.TrimSpace(s.PlanZen)
	default:
		return ""
	}
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type StockConfig struct {
	BaseURL  string        `envconfig:"RECOPHONE_STOCK_BASE_URL"`
	Token    string        `envconfig:"RECOPHONE_STOCK_TOKEN"`
	Limit    int           `envconfig:"RECOPHONE_STOCK_LIMIT" default:"200"`
	CacheTTL time.Duration `envconfig:"RECOPHONE_STOCK_CACHE_TTL" default:"10m"`
	Timeout  time.Duration `envconfig:"RECOPHONE_STOCK_TIMEOUT" default:"15s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if strings.EqualFold(db.Driver, "sqlite") {
		db.DSN = "file:recophone.db?_pragma=foreign_keys(1)"
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
