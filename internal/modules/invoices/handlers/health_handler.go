package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	llmProvider     string
	storageProvider string
}

func NewHealthHandler(llmProvider, storageProvider string) *HealthHandler {
	return &HealthHandler{llmProvider: llmProvider, storageProvider: storageProvider}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "invoice-processor",
		"llm":     h.llmProvider,
		"storage": h.storageProvider,
	})
}
