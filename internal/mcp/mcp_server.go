// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/devflow/internal/contract"
)

// SourceFactory builds the data source for one request's configuration.
type SourceFactory func(cfg *contract.Config) (contract.DataSource, error)

// Server is the devflow MCP server. The base configuration can be swapped
// while serving; each tool call works on a clone taken when it starts.
type Server struct {
	*server.MCPServer
	h *toolHandler
}

// SetConfig replaces the base configuration used by subsequent tool calls.
func (s *Server) SetConfig(cfg *contract.Config) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.baseCfg = cfg.Clone()
}

// NewMCPServer initializes and configures the devflow MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, newSource SourceFactory, mgr contract.StoreManager) *Server {
	s := server.NewMCPServer(
		"Devflow Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:   baseCfg.Clone(),
		newSource: newSource,
		mgr:       mgr,
	}

	// --- 1. Tool: get_developer_report ---
	s.AddTool(mcp.NewTool("get_developer_report",
		mcp.WithDescription("Compute delivery metrics (cycle time, flow, collaboration, quality, code characteristics, advanced) for one user over a time window."),
		mcp.WithNumber("user_id", mcp.Description("Numeric id of the user to report on."), mcp.Required()),
		mcp.WithNumber("days", mcp.Description("Window length in days ending at 'end'. Defaults to the configured window.")),
		mcp.WithString("end", mcp.Description("Window end as RFC3339, YYYY-MM-DD or 'N units ago'. Defaults to now.")),
		mcp.WithString("families", mcp.Description("Comma-separated families to compute (cycle_time, flow, collaboration, quality, code_characteristics, advanced). Defaults to all.")),
	), h.handleGetDeveloperReport)

	// --- 2. Tool: list_metric_families ---
	s.AddTool(mcp.NewTool("list_metric_families",
		mcp.WithDescription("Describe every metric family with units and formulas under the active settings."),
	), h.handleListMetricFamilies)

	return &Server{MCPServer: s, h: h}
}

// StartMCPServer serves the devflow tools over stdio until the client disconnects.
// Configuration reloads are delivered through onReload, which receives the server's SetConfig.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, newSource SourceFactory, mgr contract.StoreManager, onReload func(func(*contract.Config))) error {
	s := NewMCPServer(baseCfg, newSource, mgr)
	if onReload != nil {
		onReload(s.SetConfig)
	}
	return server.ServeStdio(s.MCPServer)
}

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	mu        sync.RWMutex
	baseCfg   *contract.Config
	newSource SourceFactory
	mgr       contract.StoreManager
}

// config returns a private copy of the current base configuration.
func (h *toolHandler) config() *contract.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.baseCfg.Clone()
}
