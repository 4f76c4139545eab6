package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// cacheTable is the name of the table for sub-resource caching.
const cacheTable = "devflow_cache"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate cache and history stores.
// An empty backend leaves the corresponding store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, cacheTTL time.Duration,
	historyBackend schema.DatabaseBackend, historyConnStr string,
) error {
	var initErr error
	initOnce.Do(func() {
		var cache contract.CacheStore
		if cacheBackend != "" {
			store, err := NewCacheStore(cacheTable, cacheBackend, cacheConnStr, cacheTTL)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize cache store: %w", err)
				return
			}
			cache = store
		}

		var history contract.ReportStore
		if historyBackend != "" {
			store, err := NewReportStore(historyBackend, historyConnStr)
			if err != nil {
				if cache != nil {
					_ = cache.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
			history = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.cache = cache
		Manager.history = history
	})
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() error {
	var result *multierror.Error
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.cache != nil {
			result = multierror.Append(result, Manager.cache.Close())
		}
		if Manager.history != nil {
			result = multierror.Append(result, Manager.history.Close())
		}
	})
	return result.ErrorOrNil()
}

// ClearCache removes all cached entries.
// SQLite deletes the database file, MySQL and PostgreSQL drop the table.
func ClearCache(backend schema.DatabaseBackend, connStr string) error {
	return clearBackend(backend, connStr, contract.GetCacheDBFilePath(), cacheTable)
}

// ClearHistory removes all report history, including the migration bookkeeping.
func ClearHistory(backend schema.DatabaseBackend, connStr string) error {
	return clearBackend(backend, connStr, contract.GetHistoryDBFilePath(), familyMetricsTable, reportRunsTable, "schema_migrations")
}

func clearBackend(backend schema.DatabaseBackend, connStr, defaultPath string, tables ...string) error {
	switch backend {
	case schema.NoneBackend:
		return nil
	case schema.SQLiteBackend:
		path := connStr
		if path == "" {
			path = defaultPath
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
		}
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(backend, connStr, "")
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return dropTables(db, backend, tables...)
	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables ...string) error {
	var result *multierror.Error
	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to drop table %s: %w", table, err))
		}
	}
	return result.ErrorOrNil()
}
