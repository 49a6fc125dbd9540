package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/YancyGuo/githubhunt/internal/models"
)

// agentModelID is the pseudo-model clients select to talk to the agent.
const agentModelID = "githubhunt-agent"

// ModelsHandler serves the static /v1/models list: the agent pseudo-model
// plus the upstream model it delegates reasoning to.
type ModelsHandler struct {
	upstreamModel string
}

func NewModelsHandler(upstreamModel string) *ModelsHandler {
	return &ModelsHandler{upstreamModel: upstreamModel}
}

func (h *ModelsHandler) Register(r fiber.Router) {
	r.Get("/models", h.list)
}

func (h *ModelsHandler) list(c *fiber.Ctx) error {
	now := time.Now().Unix()
	return c.JSON(models.ModelsResponse{
		Object: "list",
		Data: []models.ModelInfo{
			{ID: agentModelID, Object: "model", Created: now, OwnedBy: "githubhunt"},
			{ID: h.upstreamModel, Object: "model", Created: now, OwnedBy: "deepseek"},
		},
	})
}
