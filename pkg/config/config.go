package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BIKEBUDDY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "BIKEBUDDY_APP_ENV"
	EnvPort                   = "BIKEBUDDY_APP_PORT"
	EnvDBDSN                  = "BIKEBUDDY_DB_DSN"
	EnvDBHost                 = "BIKEBUDDY_DB_HOST"
	EnvDBUser                 = "BIKEBUDDY_DB_USER"
	EnvDBName                 = "BIKEBUDDY_DB_NAME"
	EnvRedisURL               = "BIKEBUDDY_REDIS_URL"
	EnvJWTSecret              = "BIKEBUDDY_JWT_SECRET"
	EnvJWTIssuer              = "BIKEBUDDY_JWT_ISSUER"
	EnvJWTExpMins             = "BIKEBUDDY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BIKEBUDDY_REFRESH_TOKEN_TTL_MINUTES"
	EnvRentalGraceWindow      = "BIKEBUDDY_RENTAL_START_GRACE"
	EnvUseSQLite              = "BIKEBUDDY_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Rental        RentalConfig
	Session       SessionConfig
	Metrics       MetricsConfig
	Bootstrap     BootstrapConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Rental.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIKEBUDDY_APP_ENV" required:"true"`
	Port         string `envconfig:"BIKEBUDDY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIKEBUDDY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIKEBUDDY_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"BIKEBUDDY_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BIKEBUDDY_DB_DSN"`
	Driver string `envconfig:"BIKEBUDDY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIKEBUDDY_DB_HOST"`
	LegacyPort     int    `envconfig:"BIKEBUDDY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIKEBUDDY_DB_USER"`
	LegacyPassword string `envconfig:"BIKEBUDDY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIKEBUDDY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIKEBUDDY_DB_SSLMODE" default:"disable"`

	// SQLitePath is only read when the SQLite feature flag is on.
	SQLitePath string `envconfig:"BIKEBUDDY_SQLITE_PATH" default:"bikebuddy.db"`

	MaxOpenConns    int           `envconfig:"BIKEBUDDY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIKEBUDDY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIKEBUDDY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIKEBUDDY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIKEBUDDY_REDIS_URL"`
	Address      string        `envconfig:"BIKEBUDDY_REDIS_ADDR"`
	Password     string        `envconfig:"BIKEBUDDY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIKEBUDDY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIKEBUDDY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIKEBUDDY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIKEBUDDY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIKEBUDDY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIKEBUDDY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BIKEBUDDY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BIKEBUDDY_JWT_ISSUER" default:"bikebuddy"`
	ExpirationMinutes      int    `envconfig:"BIKEBUDDY_JWT_EXPIRATION_MINUTES" default:"120"`
	RefreshTokenTTLMinutes int    `envconfig:"BIKEBUDDY_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BIKEBUDDY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BIKEBUDDY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BIKEBUDDY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BIKEBUDDY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BIKEBUDDY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentifierLimit  int           `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow          time.Duration `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIdentifierLimit int           `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_SIGNUP_IDENTIFIER_LIMIT" default:"3"`
	SignupIPLimit         int           `envconfig:"BIKEBUDDY_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

// RentalConfig holds the rental and catalog tunables.
type RentalConfig struct {
	StartGrace         time.Duration `envconfig:"BIKEBUDDY_RENTAL_START_GRACE" default:"1h"`
	BrowsePageSize     int           `envconfig:"BIKEBUDDY_BROWSE_PAGE_SIZE" default:"6"`
	AdminPageSize      int           `envconfig:"BIKEBUDDY_ADMIN_PAGE_SIZE" default:"10"`
	DefaultPricingUnit string        `envconfig:"BIKEBUDDY_DEFAULT_PRICING_UNIT" default:"day"`
	Currency           string        `envconfig:"BIKEBUDDY_CURRENCY" default:"KES"`
	PlaceholderImage   string        `envconfig:"BIKEBUDDY_PLACEHOLDER_IMAGE_URL" default:"https://placehold.co/400x300/e2e8f0/64748b?text=No+Image"`
}

func (r RentalConfig) validate() error {
	if r.StartGrace < 0 {
		return fmt.Errorf("%s must not be negative", EnvRentalGraceWindow)
	}
	if r.BrowsePageSize <= 0 || r.AdminPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	switch strings.ToLower(r.DefaultPricingUnit) {
	case "day", "hour":
	default:
		return fmt.Errorf("unsupported default pricing unit %q", r.DefaultPricingUnit)
	}
	return nil
}

type SessionConfig struct {
	CookieName   string `envconfig:"BIKEBUDDY_SESSION_COOKIE" default:"bb_session"`
	CookieSecure bool   `envconfig:"BIKEBUDDY_SESSION_COOKIE_SECURE" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"BIKEBUDDY_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"BIKEBUDDY_METRICS_PATH" default:"/metrics"`
}

// BootstrapConfig seeds the first administrator when all fields are present.
type BootstrapConfig struct {
	AdminUsername string `envconfig:"BIKEBUDDY_BOOTSTRAP_ADMIN_USERNAME"`
	AdminEmail    string `envconfig:"BIKEBUDDY_BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"BIKEBUDDY_BOOTSTRAP_ADMIN_PASSWORD"`
}

func (b BootstrapConfig) Enabled() bool {
	return b.AdminUsername != "" && b.AdminEmail != "" && b.AdminPassword != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BIKEBUDDY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BIKEBUDDY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = "sqlite"
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
