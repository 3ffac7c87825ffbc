package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Locks         LocksConfig
	Snapshot      SnapshotConfig
	Cron          CronConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Snapshot.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Locks.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string        `envconfig:"SUPPLYCHAIN_APP_ENV" required:"true"`
	Port           string        `envconfig:"SUPPLYCHAIN_APP_PORT" required:"true"`
	LogLevel       string        `envconfig:"SUPPLYCHAIN_LOG_LEVEL" default:"info"`
	LogWarnStack   bool          `envconfig:"SUPPLYCHAIN_LOG_WARN_STACK" default:"false"`
	RequestTimeout time.Duration `envconfig:"SUPPLYCHAIN_REQUEST_TIMEOUT" default:"10s"`
	ShutdownGrace  time.Duration `envconfig:"SUPPLYCHAIN_SHUTDOWN_GRACE" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SUPPLYCHAIN_DB_DSN"`
	Driver string `envconfig:"SUPPLYCHAIN_DB_DRIVER" default:"sqlite"`

	LegacyHost     string `envconfig:"SUPPLYCHAIN_DB_HOST"`
	LegacyPort     int    `envconfig:"SUPPLYCHAIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUPPLYCHAIN_DB_USER"`
	LegacyPassword string `envconfig:"SUPPLYCHAIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUPPLYCHAIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUPPLYCHAIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLYCHAIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLYCHAIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLYCHAIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLYCHAIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the working store runs on the embedded engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPPLYCHAIN_REDIS_URL"`
	Address      string        `envconfig:"SUPPLYCHAIN_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SUPPLYCHAIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUPPLYCHAIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUPPLYCHAIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPPLYCHAIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPPLYCHAIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPPLYCHAIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUPPLYCHAIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SUPPLYCHAIN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SUPPLYCHAIN_JWT_ISSUER" default:"supplychain"`
	ExpirationMinutes      int    `envconfig:"SUPPLYCHAIN_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SUPPLYCHAIN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SUPPLYCHAIN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SUPPLYCHAIN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SUPPLYCHAIN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SUPPLYCHAIN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SUPPLYCHAIN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SUPPLYCHAIN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUPPLYCHAIN_AUTO_MIGRATE" default:"true"`
	SeedDemo    bool `envconfig:"SUPPLYCHAIN_SEED_DEMO" default:"false"`
}

type LocksConfig struct {
	Backend string        `envconfig:"SUPPLYCHAIN_LOCK_BACKEND" default:"local"`
	TTL     time.Duration `envconfig:"SUPPLYCHAIN_LOCK_TTL" default:"30s"`
	Poll    time.Duration `envconfig:"SUPPLYCHAIN_LOCK_POLL" default:"25ms"`
}

// validate normalises Backend in place; an empty value, as left by an
// exported but blank variable, means local.
func (l *LocksConfig) validate() error {
	l.Backend = strings.ToLower(strings.TrimSpace(l.Backend))
	if l.Backend == "" {
		l.Backend = LockBackendLocal
	}
	switch l.Backend {
	case LockBackendLocal, LockBackendRedis:
		return nil
	}
	return fmt.Errorf("unsupported lock backend %q", l.Backend)
}

type SnapshotConfig struct {
	Backend  string `envconfig:"SUPPLYCHAIN_SNAPSHOT_BACKEND" default:"file"`
	Path     string `envconfig:"SUPPLYCHAIN_SNAPSHOT_PATH" default:"data/snapshot.json"`
	RedisKey string `envconfig:"SUPPLYCHAIN_SNAPSHOT_REDIS_KEY" default:"state"`
}

// validate normalises Backend in place; empty means file.
func (s *SnapshotConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = SnapshotBackendFile
	}
	switch s.Backend {
	case SnapshotBackendNone:
		return nil
	case SnapshotBackendFile:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%s is required for the file snapshot backend", EnvSnapshotPath)
		}
		return nil
	case SnapshotBackendRedis:
		if strings.TrimSpace(s.RedisKey) == "" {
			return fmt.Errorf("%s is required for the redis snapshot backend", EnvSnapshotRedisKey)
		}
		return nil
	}
	return fmt.Errorf("unsupported snapshot backend %q", s.Backend)
}

type CronConfig struct {
	Enabled          bool          `envconfig:"SUPPLYCHAIN_CRON_ENABLED" default:"true"`
	Interval         time.Duration `envconfig:"SUPPLYCHAIN_CRON_INTERVAL" default:"1m"`
	LockTTL          time.Duration `envconfig:"SUPPLYCHAIN_CRON_LOCK_TTL" default:"5m"`
	StaleRideAfter   time.Duration `envconfig:"SUPPLYCHAIN_CRON_STALE_RIDE_AFTER" default:"30m"`
	StaleOrdersAfter time.Duration `envconfig:"SUPPLYCHAIN_CRON_STALE_ORDERS_AFTER" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SUPPLYCHAIN_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.Driver == "" {
		db.Driver = DriverSQLite
	}
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DriverSQLite:
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
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
