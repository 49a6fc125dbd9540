package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/YancyGuo/githubhunt/internal/agent"
	"github.com/YancyGuo/githubhunt/internal/models"
)

// AgentRunner is the slice of the agent loop the handler needs.
type AgentRunner interface {
	Run(ctx context.Context, query string, sink agent.Sink) (string, error)
}

// ChatHandler serves /v1/chat/completions in both buffered and SSE
// streaming modes.
type ChatHandler struct {
	runner AgentRunner
	model  string
}

func NewChatHandler(runner AgentRunner, model string) *ChatHandler {
	return &ChatHandler{runner: runner, model: model}
}

func (h *ChatHandler) Register(r fiber.Router) {
	r.Post("/chat/completions", h.complete)
}

func (h *ChatHandler) complete(c *fiber.Ctx) error {
	var req models.ChatCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	query, err := models.QueryFromMessages(req.Messages)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if req.Stream {
		return h.stream(c, query)
	}
	return h.buffered(c, query)
}

// buffered runs the loop to its terminal state and returns one completion
// object. A blown turn budget still carries a best-effort answer, so it is
// served as a normal completion rather than an error.
func (h *ChatHandler) buffered(c *fiber.Ctx, query string) error {
	answer, err := h.runner.Run(c.UserContext(), query, nil)
	if err != nil && !errors.Is(err, agent.ErrMaxTurns) {
		slog.Error("agent run failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "agent run failed")
	}
	return c.JSON(models.NewChatCompletion(h.model, answer))
}

// stream runs the loop inside a fasthttp body stream writer, emitting one
// chat.completion.chunk per content event as the loop progresses. Tool
// invocations surface as SSE comment lines so the concatenated deltas still
// equal the buffered answer.
func (h *ChatHandler) stream(c *fiber.Ctx, query string) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	reqCtx := c.UserContext()
	model := h.model
	runner := h.runner

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(reqCtx)
		defer cancel()

		sink := func(ev agent.Event) {
			switch ev.Kind {
			case agent.EventContent:
				writeEvent(w, cancel, models.NewChunk(model, ev.Content))
			case agent.EventToolCall:
				writeComment(w, cancel, fmt.Sprintf("tool %s %s", ev.Tool, ev.Args))
			case agent.EventToolResult:
				// Observations stay between the loop and the model.
			}
		}

		_, err := runner.Run(ctx, query, sink)
		if err != nil && !errors.Is(err, agent.ErrMaxTurns) {
			slog.Error("agent run failed", "error", err)
			writeRaw(w, cancel, `data: {"error": {"message": "agent run failed", "type": "server_error"}}`+"\n\n")
			return
		}

		writeEvent(w, cancel, models.NewFinalChunk(model))
		writeRaw(w, cancel, "data: [DONE]\n\n")
	}))
	return nil
}

// writeEvent marshals v into a `data:` line and flushes. A flush failure
// means the client went away; cancel stops the loop on its next turn.
func writeEvent(w *bufio.Writer, cancel context.CancelFunc, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal stream chunk", "error", err)
		return
	}
	writeRaw(w, cancel, "data: "+string(payload)+"\n\n")
}

func writeComment(w *bufio.Writer, cancel context.CancelFunc, text string) {
	writeRaw(w, cancel, ": "+text+"\n\n")
}

func writeRaw(w *bufio.Writer, cancel context.CancelFunc, s string) {
	if _, err := w.WriteString(s); err != nil {
		cancel()
		return
	}
	if err := w.Flush(); err != nil {
		cancel()
	}
}
