package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestMigrateStoreSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	for _, table := range storeTables {
		assert.True(t, tableExists(t, dbPath, table), table)
	}
	assert.True(t, tableExists(t, dbPath, migrationsTable))

	// Already at the latest version
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))

	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 0))
	for _, table := range storeTables {
		assert.False(t, tableExists(t, dbPath, table), table)
	}

	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath, sizeTable))

	// The migrated schema is usable by the store
	store, err := NewResultStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/alpha", Code: 1}))
}

func TestMigrateStoreNoneBackend(t *testing.T) {
	err := MigrateStore(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "not supported")
}
