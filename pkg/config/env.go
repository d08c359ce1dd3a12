package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvBackendBaseURL = "STOREFRONT_BACKEND_BASE_URL"
	EnvAssistantURL   = "STOREFRONT_ASSISTANT_URL"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBDriver       = "STOREFRONT_DB_DRIVER"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvJWTSecret      = "STOREFRONT_JWT_SECRET"
	EnvCartSessionTTL = "STOREFRONT_CART_SESSION_TTL"
	EnvPaymentMethods = "STOREFRONT_PAYMENT_METHODS"
	EnvUseSQLite      = "STOREFRONT_USE_SQLITE"
)
