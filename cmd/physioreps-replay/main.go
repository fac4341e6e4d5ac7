package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/physioreps/internal/config"
	"github.com/claude/physioreps/internal/replay"
	"github.com/claude/physioreps/internal/session"
	"github.com/claude/physioreps/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	logsPath := flag.String("path", "", "directory of .jsonl frame logs (required)")
	statePath := flag.String("state-dir", "", "directory for the replay state db (default: alongside logs)")
	exportDir := flag.String("export-dir", "", "also write per-log rep CSV and summary JSON files to this directory")
	force := flag.Bool("force", false, "replay logs even if already recorded in the state db")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *logsPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: physioreps-replay -config config.yaml -path /path/to/logs [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*logsPath)
	if err != nil || !info.IsDir() {
		log.Error("logs path does not exist or is not a directory", "path", *logsPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Open the replay state db unless forced or dry-running
	var state *replay.StateDB
	if !*force && !*dryRun {
		dir := *statePath
		if dir == "" {
			dir = *logsPath
		}
		state, err = replay.OpenStateDB(dir)
		if err != nil {
			log.Error("failed to open state db", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	opts := session.Options{
		Engine:        cfg.Engine.Thresholds(),
		Side:          cfg.Engine.TrackedSide(),
		MinVisibility: cfg.Engine.MinVisibility,
	}

	imp := replay.New(db, state, opts, log, *exportDir, *dryRun)
	stats, err := imp.Import(ctx, *logsPath)
	if err != nil {
		log.Error("replay failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("replay complete")
}

func printStats(log *slog.Logger, stats *replay.Stats) {
	log.Info("replay stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"files_exported", stats.FilesExported,
		"sessions_created", stats.SessionsCreated,
		"reps_inserted", stats.RepsInserted,
		"samples_inserted", stats.SamplesInserted,
	)
}
