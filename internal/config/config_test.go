package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[github]
token = "ghp_test"

[llm]
api_key = "sk-test"

[search]
host = "http://127.0.0.1:7700"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.deepseek.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, "repositories", cfg.Search.Index)
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, 7777, cfg.API.Port)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.Equal(t, 3, cfg.GitHub.RetryMax)
	assert.Empty(t, cfg.API.APIKey)
}

func TestLoadMissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "sk-test"

[search]
host = "http://127.0.0.1:7700"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.token")
}

func TestLoadEnvOverridesSecret(t *testing.T) {
	path := writeConfig(t, `
[github]
token = "from-file"

[llm]
api_key = "sk-test"

[search]
host = "http://127.0.0.1:7700"
`)

	t.Setenv("GITHUB_TOKEN", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHub.Token)
}

func TestVisionEnabled(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.VisionEnabled())

	cfg.Vision.BrowserEndpoint = "http://localhost:3000/screenshot"
	assert.False(t, cfg.VisionEnabled(), "model still missing")

	cfg.Vision.Model = "qwen-vl-max"
	assert.True(t, cfg.VisionEnabled())
}

func TestVisionFallsBackToLLMCredentials(t *testing.T) {
	path := writeConfig(t, `
[github]
token = "ghp_test"

[llm]
api_key = "sk-test"
base_url = "https://example.com/v1"

[search]
host = "http://127.0.0.1:7700"

[vision]
browser_endpoint = "http://localhost:3000/screenshot"
model = "qwen-vl-max"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, "https://example.com/v1", cfg.Vision.BaseURL)
}
