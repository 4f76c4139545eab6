package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/iocache"
	"github.com/huangsam/devflow/schema"
)

// historyBackendFromConfig resolves the history backend and its connection string.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no cache for history commands)
	if err := iocache.InitStores(schema.NoneBackend, "", 0, backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This does NOT initialize stores, since opening the store migrates it to the latest version.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on report history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by report commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage historical report tracking and exports",
	Long: `Manage the history of computed reports used for trend tracking.

When enabled with --history-backend, every report run is stored with:
- Run metadata (subject, window, configuration, duration, data quality rating)
- Every metric value of every family that succeeded

This enables longitudinal analysis of a developer's delivery metrics and data
export for BI tools.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  devflow history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  devflow history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the report history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all historical report data",
	Long: `Delete all stored report runs and metric history.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  devflow history export --history-backend sqlite --output-file backup
  devflow history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear report history", err)
		}
		fmt.Println("Report history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display report history statistics and connection details",
	Long: `Show detailed information about the report history.

Displays:
- Backend type and connection status
- Total number of report runs and metric rows
- Last and oldest run timestamps
- Database table sizes

Examples:
  # Check history status
  devflow history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetReportStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the report history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export historical data to Parquet for BI tools and analytics",
	Long: `Export all stored report data to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <file>.report_runs.parquet - metadata about each report run
- <file>.family_metrics.parquet - every metric value per run

Requires: --output-file parameter

Examples:
  # Export all data
  devflow history export --history-backend sqlite --output-file devflow

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('devflow.family_metrics.parquet') LIMIT 10"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportHistory(iocache.Manager.GetReportStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export report history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the report history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  devflow history migrate --history-backend sqlite

  # Rollback all migrations
  devflow history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		res, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !res.Changed {
			fmt.Printf("History schema already at version %d.\n", res.To)
			return
		}
		fmt.Printf("History schema migrated from version %d to %d.\n", res.From, res.To)
	},
}
