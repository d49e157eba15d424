package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// Config is the full process configuration, read from STOCKLEDGER_* variables.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Ledger        LedgerConfig
	Orders        OrdersConfig
}

// Load reads the environment and reports every invalid section at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	return multierr.Combine(
		c.DB.resolveDSN(),
		c.Redis.validate(),
		c.JWT.validate(),
		c.Ledger.validate(),
		c.Orders.validate(),
	)
}

type AppConfig struct {
	Env          string `envconfig:"STOCKLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKLEDGER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOCKLEDGER_LOG_FORMAT" default:"json"`
	CORSOrigins  string `envconfig:"STOCKLEDGER_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool  { return strings.EqualFold(a.Env, AppEnvDev) }
func (a AppConfig) IsProd() bool { return strings.EqualFold(a.Env, AppEnvProd) }

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DBConfig accepts either a full DSN or discrete postgres parts.
type DBConfig struct {
	DSN    string `envconfig:"STOCKLEDGER_DB_DSN"`
	Driver string `envconfig:"STOCKLEDGER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOCKLEDGER_DB_HOST"`
	Port     int    `envconfig:"STOCKLEDGER_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKLEDGER_DB_USER"`
	Password string `envconfig:"STOCKLEDGER_DB_PASSWORD"`
	Name     string `envconfig:"STOCKLEDGER_DB_NAME"`
	SSLMode  string `envconfig:"STOCKLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

func (db *DBConfig) resolveDSN() error {
	switch {
	case db.DSN != "":
		return nil
	case db.IsSQLite():
		db.DSN = defaultSQLiteDSN
		return nil
	}

	var missing []string
	for _, part := range []struct{ env, value string }{
		{EnvDBHost, db.Host},
		{EnvDBUser, db.User},
		{EnvDBName, db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: DBDriverPostgres,
		User:   url.User(db.User),
		Host:   db.Host + ":" + strconv.Itoa(db.Port),
		Path:   db.Name,
	}
	if db.Password != "" {
		dsn.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKLEDGER_REDIS_URL"`
	Address      string        `envconfig:"STOCKLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) validate() error {
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("either %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKLEDGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKLEDGER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKLEDGER_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

func (j JWTConfig) validate() error {
	if j.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return nil
}

// PasswordConfig holds argon2id cost parameters.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKLEDGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKLEDGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKLEDGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKLEDGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKLEDGER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"STOCKLEDGER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"STOCKLEDGER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"STOCKLEDGER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKLEDGER_AUTO_MIGRATE" default:"false"`
}

// LedgerConfig bounds the recent-movements listing and sets display currency.
type LedgerConfig struct {
	RecentDefault  int    `envconfig:"STOCKLEDGER_LEDGER_RECENT_DEFAULT" default:"50"`
	RecentMax      int    `envconfig:"STOCKLEDGER_LEDGER_RECENT_MAX" default:"500"`
	CurrencySymbol string `envconfig:"STOCKLEDGER_CURRENCY_SYMBOL" default:"₹"`
}

func (l LedgerConfig) validate() error {
	if l.RecentDefault <= 0 {
		return fmt.Errorf("%s must be positive", EnvLedgerRecentDefault)
	}
	if l.RecentMax < l.RecentDefault {
		return fmt.Errorf("%s must be >= %s", EnvLedgerRecentMax, EnvLedgerRecentDefault)
	}
	return nil
}

type OrdersConfig struct {
	SummaryLimit int           `envconfig:"STOCKLEDGER_ORDERS_SUMMARY_LIMIT" default:"35"`
	LockTTL      time.Duration `envconfig:"STOCKLEDGER_ORDERS_LOCK_TTL" default:"15s"`
}

func (o OrdersConfig) validate() error {
	var err error
	if o.SummaryLimit <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvOrdersSummaryLimit))
	}
	if o.LockTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvOrdersLockTTL))
	}
	return err
}
