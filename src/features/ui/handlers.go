package ui

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/contre95/vinylshelf/src/features/config"
)

// Handler is the handler for the UI feature.
type Handler struct {
	configManager *config.Manager
}

// NewHandler creates a new handler for the UI feature.
func NewHandler(configManager *config.Manager) *Handler {
	return &Handler{
		configManager: configManager,
	}
}

// RenderSettings renders the running configuration.
func (h *Handler) RenderSettings(c *fiber.Ctx) error {
	slog.Debug("RenderSettings handler called")
	data := fiber.Map{
		"Title":  "Settings",
		"Config": h.configManager.GetYAML(),
		"Driver": h.configManager.Get().Source.Driver,
	}
	if c.Get("HX-Request") != "true" {
		data["Section"] = "settings"
		return c.Render("main", data)
	}
	return c.Render("sections/settings", data)
}

// RenderStats renders the collection statistics page.
func (h *Handler) RenderStats(c *fiber.Ctx) error {
	slog.Debug("RenderStats handler called")
	data := fiber.Map{
		"Title": "Statistics",
	}
	if c.Get("HX-Request") != "true" {
		data["Section"] = "stats"
		return c.Render("main", data)
	}
	return c.Render("sections/stats", data)
}
