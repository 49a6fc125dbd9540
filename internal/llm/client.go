// Package llm wraps an OpenAI-compatible chat completion endpoint. The
// default target is DeepSeek, but anything speaking the same wire format
// works. Reasoning stays entirely on the provider's side.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// relayUserAgent is sent on every outbound request. Some providers sit
// behind edge networks that block unknown automated clients; a plain curl
// identity passes.
const relayUserAgent = "curl/7.74.0"

// Client is a thin wrapper around one model at one endpoint. Safe for
// concurrent use.
type Client struct {
	api   openai.Client
	model string
}

// NewClient builds a client for the given OpenAI-compatible endpoint.
func NewClient(apiKey, baseURL, model string) *Client {
	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHeader("User-Agent", relayUserAgent),
	)
	return &Client{api: api, model: model}
}

// Model returns the configured upstream model id.
func (c *Client) Model() string {
	return c.model
}

// Complete asks the model for the next assistant message given the running
// history and the registered toolset. The reply either carries final answer
// content or the tool calls the model wants executed.
func (c *Client) Complete(ctx context.Context, history []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolUnionParam) (*openai.ChatCompletionMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: history,
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: completion returned no choices")
	}
	return &resp.Choices[0].Message, nil
}

// Describe sends an image plus prompt to the model. Only meaningful when
// the client was constructed with a vision-capable model.
func (c *Client) Describe(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imagePNG)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: describe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: describe returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
