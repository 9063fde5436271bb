package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager = &ResultStoreManager{}
}

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals(t)
		dbPath := filepath.Join(t.TempDir(), "results.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, dbPath))
		assert.NotNil(t, Manager.GetResultStore())
		CloseStores()

		_, err := os.Stat(dbPath)
		assert.NoError(t, err, "database file was not created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		dbPath := filepath.Join(t.TempDir(), "results.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, dbPath))
		first := Manager.GetResultStore()
		require.NoError(t, InitStores(schema.SQLiteBackend, dbPath))
		assert.Same(t, first, Manager.GetResultStore())

		CloseStores()
		CloseStores()
	})

	t.Run("empty backend is none", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores("", ""))
		status, err := Manager.GetResultStore().GetStatus()
		require.NoError(t, err)
		assert.Equal(t, string(schema.NoneBackend), status.Backend)
		CloseStores()
	})

	t.Run("bad backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.DatabaseBackend("oracle"), "")
		assert.ErrorContains(t, err, "failed to initialize results store")
		assert.Nil(t, Manager.GetResultStore())
	})
}

func TestClearStore(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "results.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

		require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Missing file is fine
		assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearStore(schema.DatabaseBackend("oracle"), "", ""))
	})
}
