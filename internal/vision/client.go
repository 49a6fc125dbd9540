// Package vision is the optional browser/vision capability: screenshot a
// repository page via an external browser automation service, then have a
// vision-capable model describe what it sees. When the capability is not
// configured the agent simply never registers the tool, so nothing in this
// package needs runtime capability checks.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/YancyGuo/githubhunt/internal/config"
	"github.com/YancyGuo/githubhunt/internal/llm"
)

const describePrompt = "This is a screenshot of a GitHub repository page. " +
	"Describe what the project is, what the README highlights, and anything " +
	"notable about its activity (stars, recent commits, badges)."

// maxImageBytes guards against the browser service returning something
// absurd; screenshots past this size are rejected.
const maxImageBytes = 8 << 20

// Client delegates screenshots to the browser endpoint and descriptions to
// a vision model. A nil *Client means the capability is off.
type Client struct {
	http     *http.Client
	endpoint string
	model    *llm.Client
}

// New returns a ready client, or nil when cfg leaves the capability
// unconfigured.
func New(cfg config.Vision) *Client {
	if cfg.BrowserEndpoint == "" || cfg.Model == "" {
		return nil
	}
	return &Client{
		http:     &http.Client{Timeout: 60 * time.Second},
		endpoint: cfg.BrowserEndpoint,
		model:    llm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model),
	}
}

// Screenshot asks the browser automation service to render url and return
// image bytes. Single shot; no retry beyond the client timeout.
func (c *Client) Screenshot(ctx context.Context, url string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: screenshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision: screenshot service returned %s", resp.Status)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("vision: read screenshot: %w", err)
	}
	if len(img) > maxImageBytes {
		return nil, fmt.Errorf("vision: screenshot exceeds %d bytes", maxImageBytes)
	}
	return img, nil
}

// Analyze screenshots the GitHub page of fullName ("owner/name") and runs
// the vision model over it.
func (c *Client) Analyze(ctx context.Context, fullName string) (string, error) {
	img, err := c.Screenshot(ctx, "https://github.com/"+fullName)
	if err != nil {
		return "", err
	}
	return c.model.Describe(ctx, img, describePrompt)
}
