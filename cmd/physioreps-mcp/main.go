// physioreps-mcp serves recorded session data to MCP clients over stdio,
// for use as a local server entry in an LLM client's configuration.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/physioreps/internal/config"
	"github.com/claude/physioreps/internal/mcp"
	"github.com/claude/physioreps/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Stdout carries the MCP protocol; all logging goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s := mcp.New(db, Version, log)
	log.Info("mcp server starting", "transport", "stdio", "version", Version)

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
