package handler

import (
	"github.com/gofiber/fiber/v2"
)

const serviceVersion = "1.0.0"

// HealthHandler serves the liveness endpoint. It deliberately has no
// dependencies: /health must answer 200 even when the search engine or the
// LLM provider is down.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "githubhunt-api",
		"version": serviceVersion,
	})
}
