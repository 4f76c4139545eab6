package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/devflow/core"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/outwriter"
)

func (h *toolHandler) handleGetDeveloperReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.config()
	userID := int64(request.GetInt("user_id", 0))
	days := request.GetInt("days", 0)
	end := request.GetString("end", "")
	families := request.GetString("families", "")

	if err := contract.RevalidateReport(cfg, userID, days, end, families); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}

	src, err := h.newSource(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data source unavailable: %v", err)), nil
	}

	report, _, err := core.GetDeveloperReport(ctx, cfg, src, h.mgr)
	if err != nil {
		if contract.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("user %d not found", userID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListMetricFamilies(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.config()
	model := outwriter.BuildMetricsRenderModel(cfg.Metrics)
	jsonData, _ := json.MarshalIndent(model, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
