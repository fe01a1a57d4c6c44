package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_SQLiteIsIdempotent(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "store.db")}
	conn, err := NewConnection(cfg)
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, DriverSQLite))

	_, err = conn.ExecContext(ctx, `UPDATE content SET value = $1 WHERE key = $2`, "custom", "faq")
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, conn, DriverSQLite))

	var faq string
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT value FROM content WHERE key = $1`, "faq").Scan(&faq))
	assert.Equal(t, "custom", faq)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`).Scan(&n))
	assert.Equal(t, len(DefaultContent), n)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{Driver: DriverPostgres, Host: "localhost", DBName: "store"}.Validate())
	assert.Error(t, Config{Driver: DriverPostgres}.Validate())
	assert.Error(t, Config{Driver: DriverSQLite}.Validate())
	assert.Error(t, Config{Driver: "mysql"}.Validate())
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Driver: DriverPostgres, User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.dsn())
}
