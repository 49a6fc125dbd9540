package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/YancyGuo/githubhunt/internal/agent"
	"github.com/YancyGuo/githubhunt/internal/config"
	"github.com/YancyGuo/githubhunt/internal/github"
	"github.com/YancyGuo/githubhunt/internal/handler"
	"github.com/YancyGuo/githubhunt/internal/index"
	"github.com/YancyGuo/githubhunt/internal/llm"
	"github.com/YancyGuo/githubhunt/internal/middleware"
	"github.com/YancyGuo/githubhunt/internal/vision"
)

// main is the single entry-point for the OpenAI-compatible API server.
func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"search_host", cfg.Search.Host,
		"search_index", cfg.Search.Index,
		"llm_model", cfg.LLM.Model,
		"vision", cfg.VisionEnabled(),
		"auth", cfg.API.APIKey != "")

	idx := index.New(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
	gh := github.NewClient(cfg.GitHub.Token, cfg.GitHub.RetryMax)
	model := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)

	var vis agent.Analyzer
	if v := vision.New(cfg.Vision); v != nil {
		vis = v
		slog.Info("visual inspection enabled", "endpoint", cfg.Vision.BrowserEndpoint)
	}

	loop := agent.New(model, cfg.Agent.MaxTurns, agent.Toolset(idx, gh, vis)...)

	app := fiber.New(fiber.Config{
		AppName:               "githubhunt-api",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(middleware.Logging())

	handler.RegisterRoutes(app, cfg.API.APIKey,
		handler.NewChatHandler(loop, cfg.LLM.Model),
		handler.NewModelsHandler(cfg.LLM.Model))

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	slog.Info("server starting", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
