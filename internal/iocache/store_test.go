package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/devflow/schema"
)

func tempDB(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManager{}
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"devflow_cache", true},
		{"_private", true},
		{"Table2", true},
		{"", false},
		{"2fast", false},
		{"drop table;--", false},
		{"with-dash", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestQuoteTableNameAndRebind(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))

	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, q, rebind(q, schema.MySQLBackend))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(q, schema.PostgreSQLBackend))
}

func TestTimeColumnScan(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 500, time.UTC)
	for _, src := range []any{want, want.Format(time.RFC3339Nano), []byte("2024-03-01 10:30:00.0000005")} {
		var tc timeColumn
		require.NoError(t, tc.Scan(src))
		assert.True(t, tc.Valid)
		assert.True(t, want.Equal(tc.Time), "%v", src)
	}

	var tc timeColumn
	require.NoError(t, tc.Scan(nil))
	assert.Nil(t, tc.ptr())
	assert.Error(t, tc.Scan(42))
	assert.Error(t, tc.Scan("yesterday"))
}

func TestCacheStoreSQLite(t *testing.T) {
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, tempDB(t, "cache.db"), time.Hour)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte("v1"), 1, now))
	require.NoError(t, store.Set("k1", []byte("v2"), 2, now))
	require.NoError(t, store.Set("old", []byte("x"), 1, now-7200))

	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, now, ts)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, 1, status.StaleEntries)
	assert.Equal(t, now, status.LastEntryTime.Unix())
	assert.Equal(t, now-7200, status.OldestEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNone(t *testing.T) {
	store, err := NewCacheStore(cacheTable, schema.NoneBackend, "", 0)
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 0))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad name", schema.SQLiteBackend, tempDB(t, "x.db"), 0)
	assert.Error(t, err)

	_, err = NewCacheStore(cacheTable, schema.DatabaseBackend("oracle"), "", 0)
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestGetUpsertQuery(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "INSERT OR REPLACE",
		schema.MySQLBackend:      "ON DUPLICATE KEY UPDATE",
		schema.PostgreSQLBackend: "ON CONFLICT (cache_key)",
	} {
		cs := &CacheStoreImpl{tableName: cacheTable, backend: backend}
		assert.Contains(t, cs.getUpsertQuery(), want, backend)
		assert.Contains(t, getCreateTableQuery(cacheTable, backend), "CREATE TABLE IF NOT EXISTS", backend)
	}
}

func TestInitAndCloseStores(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.db")
	historyPath := filepath.Join(dir, "history.db")

	require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, time.Hour, schema.SQLiteBackend, historyPath))
	// sync.Once makes repeated calls no-ops
	require.NoError(t, InitStores(schema.DatabaseBackend("bogus"), "", 0, "", ""))

	assert.NotNil(t, Manager.GetCacheStore())
	assert.NotNil(t, Manager.GetReportStore())
	assert.NoError(t, CloseStores())
	assert.NoError(t, CloseStores())

	_, err := os.Stat(cachePath)
	assert.NoError(t, err)
	_, err = os.Stat(historyPath)
	assert.NoError(t, err)
}

func TestInitStoresUnset(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores("", "", 0, "", ""))
	assert.Nil(t, Manager.GetCacheStore())
	assert.Nil(t, Manager.GetReportStore())
	assert.NoError(t, CloseStores())
}

func TestInitStoresError(t *testing.T) {
	resetGlobals(t)
	err := InitStores(schema.DatabaseBackend("bogus"), "", 0, "", "")
	assert.ErrorContains(t, err, "cache store")
}

func TestClearSQLite(t *testing.T) {
	path := tempDB(t, "cache.db")
	store, err := NewCacheStore(cacheTable, schema.SQLiteBackend, path, 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearCache(schema.SQLiteBackend, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	assert.NoError(t, ClearCache(schema.SQLiteBackend, path))
	assert.NoError(t, ClearHistory(schema.NoneBackend, ""))
	assert.Error(t, ClearHistory(schema.DatabaseBackend("bogus"), ""))
}

func TestManagerConcurrency(t *testing.T) {
	mgr := &StoreManager{}
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_ = mgr.GetCacheStore()
			_ = mgr.GetReportStore()
		})
	}
	wg.Go(func() {
		mgr.Lock()
		defer mgr.Unlock()
		mgr.cache = &MockCacheStore{}
	})
	wg.Wait()
	assert.NotNil(t, mgr.GetCacheStore())
}
