package config

const EnvPrefix = "STOCKLEDGER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:stockledger.db?cache=shared"
)

const (
	EnvAppEnv   = "STOCKLEDGER_APP_ENV"
	EnvPort     = "STOCKLEDGER_APP_PORT"
	EnvLogLevel = "STOCKLEDGER_LOG_LEVEL"

	EnvDBDSN    = "STOCKLEDGER_DB_DSN"
	EnvDBDriver = "STOCKLEDGER_DB_DRIVER"
	EnvDBHost   = "STOCKLEDGER_DB_HOST"
	EnvDBUser   = "STOCKLEDGER_DB_USER"
	EnvDBName   = "STOCKLEDGER_DB_NAME"

	EnvRedisURL  = "STOCKLEDGER_REDIS_URL"
	EnvRedisAddr = "STOCKLEDGER_REDIS_ADDR"

	EnvJWTSecret  = "STOCKLEDGER_JWT_SECRET"
	EnvJWTIssuer  = "STOCKLEDGER_JWT_ISSUER"
	EnvJWTExpMins = "STOCKLEDGER_JWT_EXPIRATION_MINUTES"

	EnvLedgerRecentDefault = "STOCKLEDGER_LEDGER_RECENT_DEFAULT"
	EnvLedgerRecentMax     = "STOCKLEDGER_LEDGER_RECENT_MAX"
	EnvOrdersSummaryLimit  = "STOCKLEDGER_ORDERS_SUMMARY_LIMIT"
	EnvOrdersLockTTL       = "STOCKLEDGER_ORDERS_LOCK_TTL"
)
