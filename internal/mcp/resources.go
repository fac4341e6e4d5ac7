package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.QuerySessions(ctx, start, end, 50)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) progressStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.GetDataStats(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
