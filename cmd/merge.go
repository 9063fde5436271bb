package cmd

import (
	"github.com/huangsam/repostudy/core"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/spf13/cobra"
)

// mergeCmd combines shard summaries.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine the shard summaries into the canonical summary tables.",
	Long: `Read every cloc_summary*.csv and ck_summary*.csv in --in-dir and write one row per
repository to the canonical summaries in --out-dir.

When a repository appears in several shards, the last file in name order wins and
the conflict is counted in the report.

Examples:
  # Merge shards in the default output directory
  repostudy merge

  # Merge shards collected from several machines
  repostudy merge --in-dir data/shards --out-dir data/processed`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMerge(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot merge summaries", err)
		}
	},
}
