package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/migrate"
	"github.com/angelmondragon/supplychain-backend/pkg/migrate/migrations"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.Validate(migrations.FS))
}

func TestUpCreatesSchemaOnSQLite(t *testing.T) {
	conn, err := db.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	applied, err := migrate.Up(ctx, sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 6, applied)

	for _, table := range []string{"users", "orders", "order_items", "rides", "invoices", "notifications", "support_tickets"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	again, err := migrate.Up(ctx, sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Zero(t, again)

	var out strings.Builder
	require.NoError(t, migrate.Run(ctx, sqlDB, config.DriverSQLite, &out, "version"))
	assert.Contains(t, out.String(), "20260110090500")
}

func TestDialectForRejectsUnknownDriver(t *testing.T) {
	_, err := migrate.DialectFor("mysql")
	require.Error(t, err)
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Ride Notes")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_ride_notes.sql"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.NoError(t, migrate.Validate(os.DirFS(filepath.Dir(path))))
}

func TestCreateSQLMigrationKeepsVersionsIncreasing(t *testing.T) {
	dir := t.TempDir()
	first, err := migrate.CreateSQLMigration(dir, "notes")
	require.NoError(t, err)
	second, err := migrate.CreateSQLMigration(dir, "notes")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Less(t, filepath.Base(first), filepath.Base(second))
	assert.NoError(t, migrate.Validate(os.DirFS(dir)))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260102000000_c.sql": {Data: []byte("-- +goose Up\n")},
		"bad-name.sql":         {Data: []byte("")},
		"README.md":            {Data: []byte("ignored")},
	}

	err := migrate.Validate(fsys)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "version 20260101000000 used by")
	assert.Contains(t, err.Error(), "bad-name.sql")

	assert.Error(t, migrate.Validate(fstest.MapFS{}))
}
