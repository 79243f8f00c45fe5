package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBAndMigrations(t *testing.T) {
	database, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database.DB, "../../migrations"))
	// Running again is a no-op
	require.NoError(t, RunMigrations(database.DB, "../../migrations"))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)

	for _, table := range []string{"byes", "matches", "players", "rounds", "sessions", "tournaments", "users"} {
		assert.Contains(t, tables, table)
	}

	var foreignKeys int
	require.NoError(t, database.Get(&foreignKeys, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, foreignKeys)
}

func TestRunMigrationsMissingDir(t *testing.T) {
	database, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	assert.Error(t, RunMigrations(database.DB, "./does-not-exist"))
}
