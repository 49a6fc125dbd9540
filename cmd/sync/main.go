package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YancyGuo/githubhunt/internal/config"
	"github.com/YancyGuo/githubhunt/internal/github"
	"github.com/YancyGuo/githubhunt/internal/index"
	"github.com/YancyGuo/githubhunt/internal/sync"
)

// main runs the offline sync job: sweep GitHub search results for a query
// into the local index, resumable across invocations.
func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	query := flag.String("query", "stars:>100", "GitHub search query to sweep")
	pages := flag.Int("pages", 5, "maximum result pages to fetch this run")
	statePath := flag.String("state", "sync-cursor.json", "path to the resume cursor file")
	reset := flag.Bool("reset", false, "discard the resume cursor and start over")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	idx := index.New(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
	gh := github.NewClient(cfg.GitHub.Token, cfg.GitHub.RetryMax)
	pipeline := sync.New(gh, idx, *statePath)

	if *reset {
		if err := pipeline.Reset(); err != nil {
			slog.Error("reset cursor", "error", err)
			os.Exit(1)
		}
		slog.Info("cursor reset", "path", *statePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := idx.Health(ctx); err != nil {
		slog.Error("search engine unreachable", "host", cfg.Search.Host, "error", err)
		os.Exit(1)
	}

	if err := pipeline.Run(ctx, *query, *pages); err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}
	slog.Info("sync complete", "query", *query)
}
