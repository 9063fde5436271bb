package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/iocache"
	"github.com/huangsam/repostudy/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute replaces it with one
// that is canceled on SIGINT or SIGTERM.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global results store manager instance.
var storeManager contract.StoreManager = iocache.Manager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "repostudy",
	Short: "Measure Java repositories and correlate process metrics with code quality.",
	Long: `Repostudy collects popular Java repositories from GitHub, measures each one with cloc
and CK, and correlates repository process metrics (stars, age, releases, size) with
class-level quality metrics (CBO, DIT, LCOM).

A typical study runs the commands in order:
  fetch    -> data/repos_list.csv
  process  -> cloc_summary.csv, ck_summary.csv, failures.log (per shard suffix)
  merge    -> canonical summaries from every shard
  analyze  -> analysis_summary.csv, correlations.csv`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".repostudy") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("REPOSTUDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("input", contract.DefaultInput)
	viper.SetDefault("out-dir", contract.DefaultOutDir)
	viper.SetDefault("work-dir", contract.DefaultWorkDir)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
	viper.SetDefault("store-backend", string(schema.NoneBackend))
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("shard-mod", 1)
	viper.SetDefault("shard-idx", 0)
	viper.SetDefault("ck-xms", contract.DefaultCKXms)
	viper.SetDefault("ck-xmx", contract.DefaultCKXmx)
	viper.SetDefault("clone-timeout", contract.DefaultCloneTimeout.String())
	viper.SetDefault("cloc-timeout", contract.DefaultClocTimeout.String())
	viper.SetDefault("ck-timeout", contract.DefaultCKTimeout.String())
	viper.SetDefault("min-n", contract.DefaultMinN)
	viper.SetDefault("top-min-n", contract.DefaultTopMinN)
	viper.SetDefault("top", contract.DefaultTopLimit)
	viper.SetDefault("query", contract.DefaultQuery)
	viper.SetDefault("language", contract.DefaultLanguage)
	viper.SetDefault("page-size", contract.DefaultPageSize)
	viper.SetDefault("page-delay", contract.DefaultPageDelay.String())
}

// loadConfigFile reads the config file, if any. A missing file is not an error.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = color.NoColor || !cfg.UseColors

	// 4. Initialize the results store with validated config
	if err := iocache.InitStores(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize results store: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command. An interrupt cancels the running command, which
// records the repositories it did not finish instead of dying mid-write.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx
	return rootCmd.Execute()
}
