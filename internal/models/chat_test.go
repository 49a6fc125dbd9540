package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role, content string) ChatMessage {
	raw, _ := json.Marshal(content)
	return ChatMessage{Role: role, Content: raw}
}

func TestQueryFromMessagesTakesLastUser(t *testing.T) {
	query, err := QueryFromMessages([]ChatMessage{
		msg("system", "you are a bot"),
		msg("user", "first question"),
		msg("assistant", "first answer"),
		msg("user", "second question"),
	})
	require.NoError(t, err)
	assert.Equal(t, "second question", query)
}

func TestQueryFromMessagesNoUser(t *testing.T) {
	_, err := QueryFromMessages([]ChatMessage{msg("system", "hi")})
	assert.ErrorIs(t, err, ErrNoUserMessage)
}

func TestQueryFromMessagesRejectsMultimodal(t *testing.T) {
	parts := json.RawMessage(`[{"type":"text","text":"hi"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`)
	_, err := QueryFromMessages([]ChatMessage{{Role: "user", Content: parts}})
	assert.ErrorIs(t, err, ErrMultimodal)
}

func TestRepoID(t *testing.T) {
	assert.Equal(t, "redis--redis", RepoID("redis/redis"))
	// Same full name always maps to the same document id.
	assert.Equal(t, RepoID("a/b"), RepoID("a/b"))
}

func TestSplitFullName(t *testing.T) {
	owner, name, ok := SplitFullName("golang/go")
	require.True(t, ok)
	assert.Equal(t, "golang", owner)
	assert.Equal(t, "go", name)

	_, _, ok = SplitFullName("no-slash")
	assert.False(t, ok)
}

func TestRequestToleratesExtraFields(t *testing.T) {
	body := `{"model":"githubhunt-agent","messages":[{"role":"user","content":"hi"}],
	          "stream":true,"temperature":0.7,"max_tokens":2000,"n":1}`
	var req ChatCompletionRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.True(t, req.Stream)
	assert.Len(t, req.Messages, 1)
}
