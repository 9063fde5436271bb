// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the repostudy MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Repository Study Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	processes := make([]string, len(schema.ProcessGroups))
	for i, g := range schema.ProcessGroups {
		processes[i] = string(g)
	}

	s.AddTool(mcp.NewTool("get_correlations",
		mcp.WithDescription("Rank the correlations between repository process metrics and class-level quality metrics."),
		mcp.WithString("process", mcp.Description("Restrict to one process group."), mcp.Enum(processes...)),
		mcp.WithNumber("min_n", mcp.Description("Minimum paired observations per correlation. Defaults to the top-min-n setting.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of correlations returned.")),
	), h.handleGetCorrelations)

	s.AddTool(mcp.NewTool("get_repo_metrics",
		mcp.WithDescription("Get the merged size and quality measurements of one repository."),
		mcp.WithString("repo", mcp.Description("Repository as owner/name."), mcp.Required()),
	), h.handleGetRepoMetrics)

	s.AddTool(mcp.NewTool("list_anomalies",
		mcp.WithDescription("List the validation findings: anomalous rows and metric outliers, grouped by category."),
	), h.handleListAnomalies)

	s.AddTool(mcp.NewTool("list_missing",
		mcp.WithDescription("List the repositories of the input list that lack a size or quality summary row."),
	), h.handleListMissing)

	return s
}

// StartMCPServer starts the repostudy MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, version string) error {
	s := NewMCPServer(baseCfg, version)
	return server.ServeStdio(s)
}
