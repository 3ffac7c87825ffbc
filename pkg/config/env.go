package config

const EnvPrefix = "SUPPLYCHAIN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultSQLiteDSN keeps the working store inside the process.
	DefaultSQLiteDSN = "file:supplychain?mode=memory&cache=shared"

	LockBackendLocal = "local"
	LockBackendRedis = "redis"

	SnapshotBackendNone  = "none"
	SnapshotBackendFile  = "file"
	SnapshotBackendRedis = "redis"
)

const (
	EnvAppEnv    = "SUPPLYCHAIN_APP_ENV"
	EnvPort      = "SUPPLYCHAIN_APP_PORT"
	EnvLogLevel  = "SUPPLYCHAIN_LOG_LEVEL"
	EnvJWTSecret = "SUPPLYCHAIN_JWT_SECRET"
	EnvRedisURL  = "SUPPLYCHAIN_REDIS_URL"

	EnvDBDSN    = "SUPPLYCHAIN_DB_DSN"
	EnvDBDriver = "SUPPLYCHAIN_DB_DRIVER"
	EnvDBHost   = "SUPPLYCHAIN_DB_HOST"
	EnvDBUser   = "SUPPLYCHAIN_DB_USER"
	EnvDBName   = "SUPPLYCHAIN_DB_NAME"

	EnvSnapshotBackend  = "SUPPLYCHAIN_SNAPSHOT_BACKEND"
	EnvSnapshotPath     = "SUPPLYCHAIN_SNAPSHOT_PATH"
	EnvSnapshotRedisKey = "SUPPLYCHAIN_SNAPSHOT_REDIS_KEY"
	EnvLockBackend      = "SUPPLYCHAIN_LOCK_BACKEND"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
