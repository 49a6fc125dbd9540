// Package config centralises all file / environment configuration for the
// assistant. It should be imported only by the cmd/ entry points (and test
// code). Business-logic layers receive an already-built Config instance via
// dependency-injection.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// GitHub configures the GitHub fetch client.
type GitHub struct {
	Token    string `toml:"token"`
	RetryMax int    `toml:"retry_max"`
}

// LLM points at any OpenAI-compatible chat completion endpoint.
type LLM struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Search holds the Meilisearch connection info.
type Search struct {
	Host   string `toml:"host"`
	APIKey string `toml:"api_key"`
	Index  string `toml:"index"`
}

// Vision is the optional screenshot + vision-model capability. Leaving
// BrowserEndpoint or Model empty disables it; APIKey and BaseURL fall back
// to the [llm] values.
type Vision struct {
	BrowserEndpoint string `toml:"browser_endpoint"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
}

// API configures the OpenAI-compatible HTTP facade. An empty APIKey means
// open access (no bearer-token check).
type API struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
}

// Agent holds the loop tuning knobs.
type Agent struct {
	MaxTurns int `toml:"max_turns"`
}

// Config holds every runtime option the assistant needs. Loaded once at
// process start and treated as immutable afterwards.
type Config struct {
	GitHub GitHub `toml:"github"`
	LLM    LLM    `toml:"llm"`
	Search Search `toml:"search"`
	Vision Vision `toml:"vision"`
	API    API    `toml:"api"`
	Agent  Agent  `toml:"agent"`
}

// Load parses the TOML file at path into Config. A .env file (if present)
// and the process environment may override the secret fields, so tokens
// never have to live in config.toml. Missing required fields are reported
// as an error so mis-configurations fail fast at startup.
func Load(path string) (Config, error) {
	// godotenv.Load() is a no-op if .env doesn't exist.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	overlay(&cfg.GitHub.Token, "GITHUB_TOKEN")
	overlay(&cfg.LLM.APIKey, "DEEPSEEK_API_KEY")
	overlay(&cfg.Search.APIKey, "MEILI_API_KEY")
	overlay(&cfg.API.APIKey, "API_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	switch {
	case c.GitHub.Token == "":
		return fmt.Errorf("config: github.token is required")
	case c.LLM.APIKey == "":
		return fmt.Errorf("config: llm.api_key is required")
	case c.Search.Host == "":
		return fmt.Errorf("config: search.host is required")
	}
	return nil
}

// VisionEnabled reports whether the optional browser/vision capability is
// fully configured. When it is not, the corresponding agent tool is omitted
// from the toolset at construction time.
func (c Config) VisionEnabled() bool {
	return c.Vision.BrowserEndpoint != "" && c.Vision.Model != ""
}

func (c *Config) applyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.deepseek.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "deepseek-chat"
	}
	if c.Search.Index == "" {
		c.Search.Index = "repositories"
	}
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = c.LLM.APIKey
	}
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = c.LLM.BaseURL
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 7777
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = 10
	}
	if c.GitHub.RetryMax == 0 {
		c.GitHub.RetryMax = 3
	}
}

// overlay replaces *dst with env[key] when the variable is set.
func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
