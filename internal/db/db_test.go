package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FreshInstallMarksAllMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "harvest.db")

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	v, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	_, err = database.Exec("INSERT INTO runs (id, family, started_at, checkpoint_failures) VALUES ('r1', 'unlock', CURRENT_TIMESTAMP, 2)")
	assert.NoError(t, err)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.db")

	first, err := Open(path)
	require.NoError(t, err)
	first.Close()

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, len(migrations), n)
}

func TestRunMigrations_UpgradesFromV1(t *testing.T) {
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer database.Close()
	database.SetMaxOpenConns(1)

	require.NoError(t, createVersionTable(database))
	tx, err := database.Begin()
	require.NoError(t, err)
	require.NoError(t, migrationV1(tx))
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, InitSchema(database))

	v, err := CurrentVersion(database)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	_, err = database.Exec("SELECT checkpoint_failures FROM runs")
	assert.NoError(t, err)
}

func TestSchemaRejectsUnknownFamily(t *testing.T) {
	database, err := Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("INSERT INTO runs (id, family, started_at) VALUES ('r1', 'mint', CURRENT_TIMESTAMP)")
	assert.Error(t, err)
}
