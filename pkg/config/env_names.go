package config

// EnvPrefix is passed to envconfig; the struct tags carry the full names so
// the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "RECOPHONE_APP_ENV"
	EnvPort     = "RECOPHONE_APP_PORT"
	EnvLogLevel = "RECOPHONE_LOG_LEVEL"

	EnvDBDSN    = "RECOPHONE_DB_DSN"
	EnvDBDriver = "RECOPHONE_DB_DRIVER"
	EnvDBHost   = "RECOPHONE_DB_HOST"
	EnvDBUser   = "RECOPHONE_DB_USER"
	EnvDBName   = "RECOPHONE_DB_NAME"

	EnvRedisURL = "RECOPHONE_REDIS_URL"

	EnvJWTSecret  = "RECOPHONE_JWT_SECRET"
	EnvJWTIssuer  = "RECOPHONE_JWT_ISSUER"
	EnvJWTExpMins = "RECOPHONE_JWT_EXPIRATION_MINUTES"

	EnvAdminUsername     = "RECOPHONE_ADMIN_USERNAME"
	EnvAdminPasswordHash = "RECOPHONE_ADMIN_PASSWORD_HASH"

	EnvStorageBackend   = "RECOPHONE_STORAGE_BACKEND"
	EnvStorageLocalRoot = "RECOPHONE_STORAGE_LOCAL_ROOT"
	EnvStorageFTPHost   = "RECOPHONE_STORAGE_FTP_HOST"
	EnvStorageFTPUser   = "RECOPHONE_STORAGE_FTP_USER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
