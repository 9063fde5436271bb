package cmd

import (
	"runtime"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/spf13/cobra"
)

// versionCmd prints build details and, on request, where the external tools resolve.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of repostudy and its external tools.",
	Long: `Display the release, commit, build time and Go runtime of this binary.

With --tools it also reports where git, cloc and java resolve, which is the first
thing to check when 'repostudy process' skips a measurement.

Examples:
  repostudy version
  repostudy version --tools`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("repostudy CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())

		if showTools, _ := cmd.Flags().GetBool("tools"); showTools {
			cmd.Printf("Tools:\n")
			for _, name := range []string{"git", "cloc", "java"} {
				path, err := contract.ResolveExecutable(name, "")
				if err != nil {
					path = "not found"
				}
				cmd.Printf("  %-5s %s\n", name+":", path)
			}
		}
	},
}
