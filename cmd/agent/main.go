package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YancyGuo/githubhunt/internal/agent"
	"github.com/YancyGuo/githubhunt/internal/config"
	"github.com/YancyGuo/githubhunt/internal/github"
	"github.com/YancyGuo/githubhunt/internal/index"
	"github.com/YancyGuo/githubhunt/internal/llm"
	"github.com/YancyGuo/githubhunt/internal/vision"
)

// main runs one agent query from the command line, printing tool activity
// to stderr and the final answer to stdout.
func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	query := flag.String("q", "", "natural-language repository query")
	visual := flag.Bool("visual", false, "allow the agent to inspect repository pages visually")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: agent -q \"a cli tool for github written in go\" [-visual]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	idx := index.New(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
	gh := github.NewClient(cfg.GitHub.Token, cfg.GitHub.RetryMax)
	model := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)

	var vis agent.Analyzer
	if *visual {
		v := vision.New(cfg.Vision)
		if v == nil {
			fmt.Fprintln(os.Stderr, "-visual requested but [vision] is not configured")
			os.Exit(1)
		}
		vis = v
	}

	loop := agent.New(model, cfg.Agent.MaxTurns, agent.Toolset(idx, gh, vis)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := func(ev agent.Event) {
		switch ev.Kind {
		case agent.EventToolCall:
			fmt.Fprintf(os.Stderr, "-> %s %s\n", ev.Tool, ev.Args)
		case agent.EventToolResult:
			fmt.Fprintf(os.Stderr, "<- %s (%d bytes)\n", ev.Tool, len(ev.Content))
		}
	}

	answer, err := loop.Run(ctx, *query, sink)
	if err != nil && !errors.Is(err, agent.ErrMaxTurns) {
		fmt.Fprintf(os.Stderr, "agent run failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer)
}
