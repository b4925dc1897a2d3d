package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvDeviceID     = "STOREFRONT_DEVICE_ID"

	EnvAPIURL         = "STOREFRONT_API_URL"
	EnvAPITimeout     = "STOREFRONT_API_TIMEOUT"
	EnvConsumerKey    = "STOREFRONT_CONSUMER_KEY"
	EnvConsumerSecret = "STOREFRONT_CONSUMER_SECRET"

	EnvAPIBreakerFailures = "STOREFRONT_API_BREAKER_FAILURES"
	EnvAPIBreakerCooldown = "STOREFRONT_API_BREAKER_COOLDOWN"

	EnvStorageDriver = "STOREFRONT_STORAGE_DRIVER"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvRedisAddr     = "STOREFRONT_REDIS_ADDR"

	EnvMetricsEnabled = "STOREFRONT_METRICS_ENABLED"

	EnvTaxRate      = "STOREFRONT_TAX_RATE"
	EnvShippingRate = "STOREFRONT_SHIPPING_RATE"
)

// Storage drivers understood by the key-value layer.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)
