package cmd

import (
	"github.com/huangsam/repostudy/core"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/spf13/cobra"
)

// fetchCmd collects the repository list from GitHub.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect the most-starred repositories from GitHub into the repository list.",
	Long: `Search GitHub for repositories sorted by stars and write them to the repository list.

For each repository the list records:
- Full name and clone URL
- Star count and creation date
- Number of published releases
- Age in years at collection time

Archived or disabled repositories are dropped, and so are repositories whose primary
language differs from --language. Unauthenticated requests are heavily rate limited;
set REPOSTUDY_GITHUB_TOKEN (or GITHUB_TOKEN) for anything beyond a quick trial.

Examples:
  # Collect the 1000 most-starred Java repositories
  repostudy fetch --max 1000

  # Collect a smaller list to a custom path
  repostudy fetch --max 50 --input data/trial_list.csv

  # Search with a custom query and no language check
  repostudy fetch --query "topic:spring stars:>500" --language ""`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetch(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot fetch repositories", err)
		}
	},
}
