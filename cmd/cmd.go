// Package cmd defines the command-line interface for devflow.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", string(schema.GitLabSource), "Event source: gitlab or fixture")
	rootCmd.PersistentFlags().String("gitlab-url", contract.DefaultGitLabURL, "Base URL of the GitLab instance")
	rootCmd.PersistentFlags().String("gitlab-token", "", "GitLab access token (prefer DEVFLOW_GITLAB_TOKEN)")
	rootCmd.PersistentFlags().String("gitlab-auth", contract.PrivateTokenAuth, "GitLab authentication: private-token or oauth")
	rootCmd.PersistentFlags().String("fixture", "", "Path to a YAML or JSON event dump used by the fixture source")
	rootCmd.PersistentFlags().String("end", "", "Window end in ISO8601, YYYY-MM-DD or time ago (default now)")
	rootCmd.PersistentFlags().IntP("days", "d", contract.DefaultWindowDays, "Window length in days")
	rootCmd.PersistentFlags().String("families", "all", "Comma-separated metric families to compute")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent sub-resource fetches")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or yaml or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", "6 hours", "Age after which cached sub-resources are refetched")
	rootCmd.PersistentFlags().Int("lru-size", contract.DefaultLRUSize, "Number of sub-resource payloads kept in memory")
	rootCmd.PersistentFlags().String("history-backend", "", "Report history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for report history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
