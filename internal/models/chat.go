package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Errors surfaced by QueryFromMessages; the handler maps both to HTTP 400.
var (
	ErrNoUserMessage = errors.New("no user message found in conversation")
	ErrMultimodal    = errors.New("multimodal input (text+image) is not supported yet; use text-only queries")
)

// ChatMessage is one entry of the OpenAI conversation envelope. Content is
// kept raw because clients may send either a string or a multimodal part
// list (which we reject, but must parse without erroring first).
type ChatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Text decodes the message content as a plain string. ok is false for
// array (multimodal) or otherwise non-string content.
func (m ChatMessage) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// ChatCompletionRequest is the inbound /v1/chat/completions payload.
// Unknown fields (temperature, top_p, ...) are tolerated and ignored.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// QueryFromMessages converts an OpenAI message list into the agent query.
// Strategy: only the last user message counts; earlier turns are the
// client's business, not context we replay.
func QueryFromMessages(messages []ChatMessage) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "user" {
			continue
		}
		text, ok := messages[i].Text()
		if !ok {
			return "", ErrMultimodal
		}
		return text, nil
	}
	return "", ErrNoUserMessage
}

// ---- Response envelope ------------------------------------------------------

type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   Usage                  `json:"usage"`
}

// NewChatCompletion builds the buffered (non-streaming) response object.
// Token accounting is not available from the loop, so usage stays zeroed.
func NewChatCompletion(model, content string) ChatCompletionResponse {
	now := time.Now()
	return ChatCompletionResponse{
		ID:      completionID(now),
		Object:  "chat.completion",
		Created: now.Unix(),
		Model:   model,
		Choices: []ChatCompletionChoice{{
			Message:      ChatCompletionMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
}

// ---- Streaming chunks -------------------------------------------------------

type ChatCompletionDelta struct {
	Content string `json:"content,omitempty"`
}

type ChatCompletionChunkChoice struct {
	Index        int                 `json:"index"`
	Delta        ChatCompletionDelta `json:"delta"`
	FinishReason *string             `json:"finish_reason"`
}

type ChatCompletionChunk struct {
	ID      string                      `json:"id"`
	Object  string                      `json:"object"`
	Created int64                       `json:"created"`
	Model   string                      `json:"model"`
	Choices []ChatCompletionChunkChoice `json:"choices"`
}

// NewChunk builds one incremental content chunk.
func NewChunk(model, content string) ChatCompletionChunk {
	now := time.Now()
	return ChatCompletionChunk{
		ID:      completionID(now),
		Object:  "chat.completion.chunk",
		Created: now.Unix(),
		Model:   model,
		Choices: []ChatCompletionChunkChoice{{
			Delta: ChatCompletionDelta{Content: content},
		}},
	}
}

// NewFinalChunk builds the terminating chunk with finish_reason=stop.
func NewFinalChunk(model string) ChatCompletionChunk {
	stop := "stop"
	now := time.Now()
	return ChatCompletionChunk{
		ID:      completionID(now),
		Object:  "chat.completion.chunk",
		Created: now.Unix(),
		Model:   model,
		Choices: []ChatCompletionChunkChoice{{
			Delta:        ChatCompletionDelta{},
			FinishReason: &stop,
		}},
	}
}

// ---- /v1/models -------------------------------------------------------------

type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelsResponse struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

func completionID(now time.Time) string {
	return "chatcmpl-" + strconv.FormatInt(now.UnixMilli(), 10)
}
