// Package handler exposes the OpenAI-compatible HTTP surface: /health,
// /v1/models and /v1/chat/completions.
package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/YancyGuo/githubhunt/internal/middleware"
)

// RegisterRoutes mounts all endpoints. /health stays outside the
// authenticated group so liveness probes never need credentials.
func RegisterRoutes(app *fiber.App, apiKey string, chat *ChatHandler, models *ModelsHandler) {
	NewHealthHandler().Register(app)

	v1 := app.Group("/v1", middleware.Auth(apiKey))
	models.Register(v1)
	chat.Register(v1)
}
