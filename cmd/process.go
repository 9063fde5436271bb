package cmd

import (
	"github.com/huangsam/repostudy/core"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/spf13/cobra"
)

// processCmd runs the measurement loop.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clone and measure each repository of the list with cloc and CK.",
	Long: `Measure every selected repository of the input list, one scratch directory at a time.

For each repository:
- Clone it shallowly (falling back to extracting sources only)
- Count lines with cloc, trying progressively broader strategies
- Measure class-level CBO, DIT and LCOM with CK and summarize them
- Upsert one row into the size and quality summaries
- Delete the scratch directory unless --keep-temp is set

A failure only affects its repository: it is appended to the failure log with the
stage it happened in, and the loop moves on. Re-running a repository replaces its rows.
Interrupting the run records the unfinished repositories as canceled.

Selection happens in this order: --filter, --start-at, shard (--shard-mod/--shard-idx), --max.
Use a distinct --out-suffix per shard and combine them later with 'repostudy merge'.

Examples:
  # Measure the first 20 repositories
  repostudy process --max 20

  # Run shard 1 of 4 with its own summaries
  repostudy process --shard-mod 4 --shard-idx 1 --out-suffix _s1

  # Re-process the repositories reported by 'repostudy missing --write'
  repostudy process --input data/processed/missing_repos_next.csv

  # Measure with 4 workers and record the run in SQLite
  repostudy process --workers 4 --store-backend sqlite`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteProcess(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run measurement", err)
		}
	},
}
