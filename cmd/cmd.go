// Package cmd defines the command-line interface for repostudy.
package cmd

import (
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(missingCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("input", contract.DefaultInput, "Repository list CSV (repo,url,...)")
	rootCmd.PersistentFlags().String("out-dir", contract.DefaultOutDir, "Directory for summaries, failure logs and analysis tables")
	rootCmd.PersistentFlags().String("in-dir", "", "Directory to read summaries from (defaults to --out-dir)")
	rootCmd.PersistentFlags().String("out-suffix", "", "Suffix of the summary and failure files, e.g. _s0 for a shard")
	rootCmd.PersistentFlags().Int("max", 0, "Maximum number of repositories to process or fetch (0 = all for process)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("progress", false, "Show a progress bar on stderr")
	rootCmd.PersistentFlags().String("store-backend", string(schema.NoneBackend), "Results store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the results store (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of processCmd to Viper
	processCmd.Flags().String("work-dir", contract.DefaultWorkDir, "Scratch directory for clones and tool output")
	processCmd.Flags().Int("start-at", 0, "Skip this many repositories of the filtered list")
	processCmd.Flags().StringP("filter", "f", "", "Only process repositories matching this regex")
	processCmd.Flags().Bool("skip-cloc", false, "Skip size measurement")
	processCmd.Flags().Bool("skip-ck", false, "Skip quality measurement")
	processCmd.Flags().Int("workers", contract.DefaultWorkers, "Number of repositories measured concurrently")
	processCmd.Flags().String("git-exe", "", "Path to git (default: found on PATH)")
	processCmd.Flags().String("cloc-exe", "", "Path to cloc (default: found on PATH)")
	processCmd.Flags().String("java-exe", "", "Path to java (default: JAVA_HOME or PATH)")
	processCmd.Flags().String("ck-jar", "", "Path to the CK jar-with-dependencies (default: searched in tools/ck and ~/.repostudy/ck)")
	processCmd.Flags().Bool("keep-temp", false, "Keep the per-repository scratch directories")
	processCmd.Flags().Int("shard-mod", 1, "Number of shards the list is split into")
	processCmd.Flags().Int("shard-idx", 0, "Index of the shard this run processes")
	processCmd.Flags().String("ck-xms", contract.DefaultCKXms, "Initial JVM heap for CK")
	processCmd.Flags().String("ck-xmx", contract.DefaultCKXmx, "Maximum JVM heap for CK")
	processCmd.Flags().Bool("cloc-extended", false, "Use cloc's extended source-detection options")
	processCmd.Flags().String("clone-timeout", contract.DefaultCloneTimeout.String(), "Timeout of one clone")
	processCmd.Flags().String("cloc-timeout", contract.DefaultClocTimeout.String(), "Timeout of one cloc invocation")
	processCmd.Flags().String("ck-timeout", contract.DefaultCKTimeout.String(), "Timeout of one CK invocation")
	if err := viper.BindPFlags(processCmd.Flags()); err != nil {
		contract.LogFatal("Error binding process flags", err)
	}

	// Bind all flags of analyzeCmd to Viper
	analyzeCmd.Flags().Int("min-n", contract.DefaultMinN, "Minimum paired observations to compute a correlation")
	analyzeCmd.Flags().Int("top-min-n", contract.DefaultTopMinN, "Minimum paired observations for the ranked list")
	analyzeCmd.Flags().Int("top", contract.DefaultTopLimit, "Number of ranked correlations to print (0 = all)")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Bind all flags of missingCmd to Viper
	missingCmd.Flags().Bool("write", false, "Write the repositories missing either summary to the next work list")
	if err := viper.BindPFlags(missingCmd.Flags()); err != nil {
		contract.LogFatal("Error binding missing flags", err)
	}

	// Bind all flags of fetchCmd to Viper
	fetchCmd.Flags().String("query", contract.DefaultQuery, "GitHub repository search query")
	fetchCmd.Flags().String("language", contract.DefaultLanguage, "Keep only repositories whose primary language matches (empty = any)")
	fetchCmd.Flags().Int("page-size", contract.DefaultPageSize, "Search results per page (max 100)")
	fetchCmd.Flags().String("page-delay", contract.DefaultPageDelay.String(), "Pause between search pages")
	fetchCmd.Flags().String("github-token", "", "GitHub token (prefer REPOSTUDY_GITHUB_TOKEN or GITHUB_TOKEN)")
	if err := viper.BindPFlags(fetchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding fetch flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// Local-only flag; not bound to Viper
	versionCmd.Flags().Bool("tools", false, "Also report where git, cloc and java resolve")
}
