package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/repostudy/core"
	"github.com/huangsam/repostudy/core/algo"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) loadTables() (core.Tables, error) {
	return core.LoadTables(h.baseCfg.InputPath, h.baseCfg.InDir, h.baseCfg.OutSuffix)
}

func (h *toolHandler) handleGetCorrelations(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if n := request.GetInt("min_n", 0); n > 0 {
		cfg.TopMinN = n
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.TopLimit = l
	}
	process := schema.ProcessGroup(request.GetString("process", ""))
	if process != "" {
		if _, ok := schema.ProcessMetrics[process]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown process group %q", process)), nil
		}
	}

	tables, err := h.loadTables()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tables failed: %v", err)), nil
	}
	corrs := core.ComputeCorrelations(core.JoinTables(tables), cfg.MinN)
	if process != "" {
		filtered := corrs[:0]
		for _, c := range corrs {
			if c.Process == process {
				filtered = append(filtered, c)
			}
		}
		corrs = filtered
	}
	return jsonResult(algo.RankCorrelations(corrs, cfg.TopMinN, cfg.TopLimit))
}

func (h *toolHandler) handleGetRepoMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := request.RequireString("repo")
	if err != nil || strings.TrimSpace(repo) == "" {
		return mcp.NewToolResultError("repo is required"), nil
	}

	tables, err := h.loadTables()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tables failed: %v", err)), nil
	}
	for _, m := range core.JoinTables(tables) {
		if strings.EqualFold(m.Repo, repo) {
			return jsonResult(m)
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("repository %s is not in the input list", repo)), nil
}

func (h *toolHandler) handleListAnomalies(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := core.LoadSummaries(h.baseCfg.InDir, h.baseCfg.OutSuffix)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading summaries failed: %v", err)), nil
	}
	return jsonResult(core.BuildValidationReport(tables))
}

func (h *toolHandler) handleListMissing(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := h.loadTables()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading tables failed: %v", err)), nil
	}
	return jsonResult(core.BuildMissingReport(tables))
}
