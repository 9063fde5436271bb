package cmd

import (
	"github.com/huangsam/repostudy/core"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd correlates process metrics with quality metrics.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Join the list with the summaries and correlate process and quality metrics.",
	Long: `Join the repository list with the size and quality summaries and compute the
Spearman and Pearson correlation of every process metric against every quality metric.

Writes to --out-dir:
- analysis_summary.csv: one row per listed repository, flagged when anomalous
- correlations.csv: every pair with at least --min-n observations

Then prints the strongest correlations with at least --top-min-n observations and
the median strength per process metric.

Examples:
  # Analyze the canonical summaries
  repostudy analyze

  # Show the 25 strongest correlations as JSON
  repostudy analyze --top 25 --output json

  # Export the merged and correlation tables for DuckDB
  repostudy analyze --output parquet --output-file data/study`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}

// missingCmd reports unmeasured repositories.
var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "Report listed repositories that lack a size or quality row.",
	Long: `Compare the repository list with the summaries and report the coverage gaps.

With --write, the repositories missing either row are written to
missing_repos_next.csv in --out-dir, ready to be passed back to 'repostudy process --input'.

Examples:
  # Show coverage of the canonical summaries
  repostudy missing

  # Write the next work list
  repostudy missing --write`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMissing(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot check missing repositories", err)
		}
	},
}

// validateCmd reports anomalies and outliers.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the summaries for anomalous rows and metric outliers.",
	Long: `Group the repositories of the summaries by finding:
- zero_code_with_quality: cloc counted no code but CK measured classes
- quality_without_size / size_without_quality: one of the two rows is missing
- lcom_median_gt_100, cbo_median_gt_10, dit_median_gt_4: outlying medians

Anomalous rows stay in every table; this command only reports them.

Examples:
  # Validate the canonical summaries
  repostudy validate

  # Validate one shard as CSV
  repostudy validate --out-suffix _s2 --output csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteValidate(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot validate summaries", err)
		}
	},
}
