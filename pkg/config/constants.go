package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvLogLevel    = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat   = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL  = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout  = "STOREFRONT_API_TIMEOUT"
	EnvStoreDriver = "STOREFRONT_STORE_DRIVER"
	EnvStorePath   = "STOREFRONT_STORE_PATH"
	EnvStoreDSN    = "STOREFRONT_STORE_DSN"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvRedisAddr   = "STOREFRONT_REDIS_ADDR"
	EnvConsolePort = "STOREFRONT_CONSOLE_PORT"

	StoreDriverFile     = "file"
	StoreDriverRedis    = "redis"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

var storeDrivers = []string{
	StoreDriverFile,
	StoreDriverRedis,
	StoreDriverSQLite,
	StoreDriverPostgres,
}
