// Package agent implements the model-call/tool-call loop that turns a
// natural-language query into a final answer. The loop owns its running
// message history for the duration of one Run; nothing is shared across
// invocations, so a single Agent serves concurrent requests.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v2"
)

// ErrMaxTurns is the loop safety valve: the turn budget ran out before the
// model produced a final answer. Run still returns a best-effort answer
// alongside it, never a silent hang.
var ErrMaxTurns = errors.New("agent: turn budget exceeded")

const budgetExceededAnswer = "I was unable to complete the request within the turn budget. " +
	"Try a more specific query."

// Completer is the slice of the LLM client the loop needs.
type Completer interface {
	Complete(ctx context.Context, history []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolUnionParam) (*openai.ChatCompletionMessage, error)
}

// Tool is one registered operation the model may request by name.
type Tool struct {
	Name string
	Def  openai.ChatCompletionToolUnionParam
	Run  func(ctx context.Context, args json.RawMessage) (string, error)
}

// EventKind tags the progress events emitted during a run.
type EventKind string

const (
	EventContent    EventKind = "content"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
)

// Event is one piece of loop progress: a tool invocation, its observation,
// or answer content.
type Event struct {
	Kind    EventKind
	Tool    string
	Args    string
	Content string
}

// Sink receives events as the loop progresses. A nil sink buffers silently.
type Sink func(Event)

// Agent runs the bounded tool-calling loop over a fixed toolset.
type Agent struct {
	llm      Completer
	maxTurns int
	tools    map[string]Tool
	defs     []openai.ChatCompletionToolUnionParam
	names    []string
}

// New builds an agent. The toolset is closed at construction time: optional
// capabilities that are not configured are simply never passed in.
func New(llm Completer, maxTurns int, tools ...Tool) *Agent {
	a := &Agent{
		llm:      llm,
		maxTurns: maxTurns,
		tools:    make(map[string]Tool, len(tools)),
	}
	if a.maxTurns < 1 {
		a.maxTurns = 1
	}
	for _, t := range tools {
		a.tools[t.Name] = t
		a.defs = append(a.defs, t.Def)
		a.names = append(a.names, t.Name)
	}
	return a
}

// Run executes the loop for one query and returns the final answer. The
// error is nil on DONE, ErrMaxTurns when the budget ran out (the returned
// answer is still usable), or the model-call error itself, which is fatal
// for the request.
func (a *Agent) Run(ctx context.Context, query string, sink Sink) (string, error) {
	if sink == nil {
		sink = func(Event) {}
	}

	history := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(query),
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		msg, err := a.llm.Complete(ctx, history, a.defs)
		if err != nil {
			return "", err
		}

		if len(msg.ToolCalls) == 0 {
			answer := strings.TrimSpace(msg.Content)
			if answer == "" {
				answer = "No response generated from agent."
			}
			sink(Event{Kind: EventContent, Content: answer})
			return answer, nil
		}

		history = append(history, msg.ToParam())

		call := msg.ToolCalls[0]
		slog.Debug("tool call requested", "tool", call.Function.Name, "turn", turn)
		sink(Event{Kind: EventToolCall, Tool: call.Function.Name, Args: call.Function.Arguments})

		observation := a.dispatch(ctx, call.Function.Name, call.Function.Arguments)
		sink(Event{Kind: EventToolResult, Tool: call.Function.Name, Content: observation})
		history = append(history, openai.ToolMessage(observation, call.ID))

		// Only one tool call per turn is modeled; any extras the model
		// batched get declined so the protocol stays balanced.
		for _, extra := range msg.ToolCalls[1:] {
			history = append(history, openai.ToolMessage(
				"declined: one tool call per turn; re-issue this call on the next turn if still needed",
				extra.ID))
		}
	}

	sink(Event{Kind: EventContent, Content: budgetExceededAnswer})
	return budgetExceededAnswer, ErrMaxTurns
}

// dispatch resolves the tool by exact name and runs it. Every failure mode
// becomes a textual observation for the model; tool errors are recoverable
// from the loop's point of view.
func (a *Agent) dispatch(ctx context.Context, name, rawArgs string) string {
	tool, ok := a.tools[name]
	if !ok {
		return fmt.Sprintf("unknown tool %q; registered tools are: %s. Retry with one of those.",
			name, strings.Join(a.names, ", "))
	}

	result, err := tool.Run(ctx, json.RawMessage(rawArgs))
	if err != nil {
		return "tool error: " + err.Error()
	}
	return result
}
