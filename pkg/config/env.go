package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CartBackendMemory    = "memory"
	CartBackendRedis     = "redis"
	CartBackendSQL       = "sql"
	CartBackendFirestore = "firestore"

	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvDBHost       = "STOREFRONT_DB_HOST"
	EnvDBUser       = "STOREFRONT_DB_USER"
	EnvDBName       = "STOREFRONT_DB_NAME"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvRedisAddr    = "STOREFRONT_REDIS_ADDR"
	EnvCartBackend  = "STOREFRONT_CART_BACKEND"
	EnvCartIdleTTL  = "STOREFRONT_CART_IDLE_TTL"
	EnvAuthProvider = "STOREFRONT_AUTH_PROVIDER"
	EnvJWTSecret    = "STOREFRONT_JWT_SECRET"
	EnvAdminEmails  = "STOREFRONT_ADMIN_EMAILS"
	EnvGCPProjectID = "STOREFRONT_GCP_PROJECT_ID"
	EnvGCSBucket    = "STOREFRONT_GCS_BUCKET_NAME"
	EnvOrdersTopic  = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
