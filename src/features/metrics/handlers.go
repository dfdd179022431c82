package metrics

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for the metrics feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new metrics handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetOverview renders the collection overview as a partial or JSON.
func (h *Handler) GetOverview(c *fiber.Ctx) error {
	slog.Debug("GetOverview handler called")

	overview, err := h.service.GetOverview(c.Context())
	if err != nil {
		slog.Error("Error loading overview", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Error loading overview")
	}

	acceptHeader := c.Get("Accept")
	hxRequest := c.Get("HX-Request")
	if strings.Contains(acceptHeader, "text/html") || hxRequest == "true" {
		return c.Render("metrics/overview", fiber.Map{
			"Overview": overview,
		})
	}
	return c.JSON(overview)
}
