package cmd

import (
	"fmt"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/iocache"
	"github.com/huangsam/repostudy/internal/outwriter"
	"github.com/huangsam/repostudy/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromViper reads and validates the results store settings only.
func storeBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize results store: %w", err)
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup is a specialized setup that does NOT initialize stores or create
// tables, allowing migrations to run on a fresh database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}
	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on results store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by the study commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the results store that mirrors summaries and tracks runs",
	Long: `Manage the optional SQL results store.

When --store-backend is set, 'repostudy process' mirrors every size and quality row
into the store, and records each run with its repository failures. The CSV summaries
stay the source of truth.

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)
MySQL connection strings need parseTime=true.

Subcommands:
  status  - Show run count and table sizes
  export  - Export every table to Parquet
  clear   - Remove all stored data
  migrate - Run database schema migrations

Examples:
  # Check store status
  repostudy store status --store-backend sqlite

  # Export for analysis in pandas/DuckDB
  repostudy store export --store-backend sqlite --output-file results`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, number of runs, last run and row count per table.

Examples:
  # Check the default SQLite store
  repostudy store status --store-backend sqlite

  # Check a PostgreSQL store
  REPOSTUDY_STORE_BACKEND=postgresql REPOSTUDY_STORE_DB_CONNECT="host=localhost dbname=study user=me" repostudy store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetResultStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		if err := outwriter.PrintStoreStatus(status, cfg); err != nil {
			contract.LogFatal("Failed to print store status", err)
		}
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored results and run history",
	Long: `Delete all stored rows, runs and failures from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the results tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  repostudy store export --store-backend sqlite --output-file backup
  repostudy store clear --store-backend sqlite`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear results store", err)
		}
		fmt.Println("Results store cleared successfully.")
	},
}

// storeExportCmd exports the store to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the results store to Parquet for BI tools and analytics",
	Long: `Export every table of the results store to Parquet files named after --output-file:
  <output-file>.size.parquet
  <output-file>.quality.parquet
  <output-file>.runs.parquet
  <output-file>.failures.parquet

Requires: --output-file parameter

Examples:
  # Export all data
  repostudy store export --store-backend sqlite --output-file results

  # Query with DuckDB
  duckdb -c "SELECT stage, COUNT(*) FROM read_parquet('results.failures.parquet') GROUP BY stage"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportStore(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export results store", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the results store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the results store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  repostudy store migrate --store-backend sqlite

  # Migrate to specific version
  repostudy store migrate --store-backend sqlite --target-version 1

  # Rollback to initial state
  repostudy store migrate --store-backend sqlite --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
