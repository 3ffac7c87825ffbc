package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected IsProd to be true")
	}
	if cfg.App.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.App.RequestTimeout)
	}
	if !cfg.DB.IsSQLite() {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN != DefaultSQLiteDSN {
		t.Fatalf("unexpected sqlite dsn %q", cfg.DB.DSN)
	}
	if cfg.Snapshot.Backend != SnapshotBackendFile {
		t.Fatalf("unexpected snapshot backend %q", cfg.Snapshot.Backend)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected default cors origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_PostgresBuildsDSNFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, DriverPostgres)
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "chain")
	t.Setenv(EnvDBName, "supplychain")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !strings.HasPrefix(cfg.DB.DSN, "postgres://chain@db.internal:5432/supplychain") {
		t.Fatalf("unexpected dsn %q", cfg.DB.DSN)
	}
}

func TestLoad_PostgresRequiresParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, DriverPostgres)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when postgres parts are missing")
	}
	if !strings.Contains(err.Error(), EnvDBDSN) {
		t.Fatalf("expected error to mention %s, got %v", EnvDBDSN, err)
	}
}

func TestLoad_BlankBackendsFallBackToDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Snapshot.Backend != SnapshotBackendFile {
		t.Fatalf("expected file snapshot backend, got %q", cfg.Snapshot.Backend)
	}
	if cfg.Locks.Backend != LockBackendLocal {
		t.Fatalf("expected local lock backend, got %q", cfg.Locks.Backend)
	}

	t.Setenv(EnvSnapshotBackend, " Redis ")
	t.Setenv(EnvLockBackend, "REDIS")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Snapshot.Backend != SnapshotBackendRedis || cfg.Locks.Backend != LockBackendRedis {
		t.Fatalf("expected normalised redis backends, got %q and %q", cfg.Snapshot.Backend, cfg.Locks.Backend)
	}
}

func TestLoad_RejectsUnknownSnapshotBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSnapshotBackend, "s3")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported snapshot backend error")
	}
}

func TestLoad_RejectsUnknownLockBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLockBackend, "zookeeper")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported lock backend error")
	}
}

func TestRefreshTokenTTL(t *testing.T) {
	cfg := JWTConfig{RefreshTokenTTLMinutes: 90}
	if got := cfg.RefreshTokenTTL(); got != 90*time.Minute {
		t.Fatalf("unexpected ttl %v", got)
	}
	if got := (JWTConfig{}).RefreshTokenTTL(); got != 0 {
		t.Fatalf("expected zero ttl, got %v", got)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvDBDriver, "")
	t.Setenv(EnvDBDSN, "")
	t.Setenv(EnvSnapshotBackend, "")
	t.Setenv(EnvLockBackend, "")
}
