package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/iocache"
	"github.com/huangsam/devflow/schema"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")

	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	ttl := contract.DefaultCacheTTL
	if raw := viper.GetString("cache-ttl"); raw != "" {
		parsed, err := contract.ParseLookbackDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl: %w", err)
		}
		ttl = parsed
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, ttl, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	cfg.CacheTTL = ttl

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by report commands. This avoids source validation
// and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the sub-resource cache (improves performance)",
	Long: `Manage the cache of merge request notes, discussions, approvals, commits and
pipeline jobs that speeds up repeated reports.

A report fans out into several API calls per merge request. Devflow keeps those
payloads in memory and in a durable store, refetching them once they are older
than --cache-ttl. Project-wide listings are always fetched fresh.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  devflow cache status

  # Clear cache after editing merge requests in bulk
  devflow cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached sub-resource payloads",
	Long: `Delete all cached sub-resource payloads from the configured backend.

Use this when:
- Notes or approvals were edited after being cached
- Cache may be stale or corrupted
- Testing performance without cache

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  devflow cache clear

  # Clear MySQL cache (set connection string via env variable)
  DEVFLOW_CACHE_BACKEND=mysql DEVFLOW_CACHE_DB_CONNECT="..." devflow cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the sub-resource cache.

Displays:
- Backend type and connection status
- Total and stale number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  devflow cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCacheStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
