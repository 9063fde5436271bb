package cmd

import (
	"github.com/huangsam/repostudy/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the repostudy MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents query the study results.

Tools:
  get_correlations  - ranked correlations, optionally for one process group
  get_repo_metrics  - merged measurements of one repository
  list_anomalies    - validation findings by category
  list_missing      - repositories lacking a size or quality row

The tools read the same files as 'repostudy analyze', so --input, --in-dir and
--out-suffix apply.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, version)
	},
}
