package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateReportsAppliedFiles(t *testing.T) {
	cfg := Config{
		Driver:        DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "bot.db"),
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	rep, err := Migrate(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(0), rep.From)
	assert.Equal(t, uint(3), rep.To)
	assert.Len(t, rep.Applied, 3)

	rep, err = Migrate(cfg)
	require.NoError(t, err)
	assert.Empty(t, rep.Applied)
	assert.Equal(t, "schema at version 3, nothing to apply", rep.String())
}
