// Package mcp exposes recorded squat sessions to LLM clients over the
// Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PhysioReps", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("PhysioReps squat tracking server. Query recorded squat sessions, per-rep form data (depth, tempo), and long-term progress statistics. All angles are knee joint angles in degrees; lower means deeper."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolGetSessionReps, Handler: h.getSessionReps},
		server.ServerTool{Tool: toolCompareSessions, Handler: h.compareSessions},
		server.ServerTool{Tool: toolGetAngleSeries, Handler: h.getAngleSeries},
		server.ServerTool{Tool: toolGetDataStats, Handler: h.getDataStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resProgressStats, Handler: h.progressStats},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"physioreps://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Squat sessions from the last 14 days with rep counts and depth summaries"),
	mcp.WithMIMEType("application/json"),
)

var resProgressStats = mcp.NewResource(
	"physioreps://progress_stats",
	"Progress Stats",
	mcp.WithResourceDescription("All-time totals: sessions, reps, best depth, and session date range"),
	mcp.WithMIMEType("application/json"),
)
