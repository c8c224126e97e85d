package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalizeDefaultsToSQLite(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, 1, cfg.MaxConnections)
	assert.Equal(t, "sqlite://data/dialogbot.db", cfg.MigrateURL())
	assert.Contains(t, cfg.DSN(), "busy_timeout(5000)")
}

func TestConfigNormalizePostgres(t *testing.T) {
	cfg := Config{Driver: "Postgres", Host: "db", Name: "bot", User: "u", Password: "p@ss"}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "postgres://u:p%40ss@db:5432/bot?sslmode=disable", cfg.MigrateURL())
	assert.Equal(t, "migrations/postgres", cfg.MigrationsPath())
}

func TestConfigNormalizeRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Driver: "mysql"}
	assert.Error(t, cfg.Normalize())

	cfg = Config{Driver: "postgres"}
	assert.Error(t, cfg.Normalize(), "postgres without host must fail")
}

func TestParseVersionAndSelectApplied(t *testing.T) {
	files := []string{"000001_students.up.sql", "000002_users.up.sql", "000003_assessments.up.sql"}
	assert.Equal(t, uint64(2), parseVersion(files[1]))
	assert.Equal(t, []string{"000002_users.up.sql", "000003_assessments.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
}
