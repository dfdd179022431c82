package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the metrics routes with the Fiber app.
func RegisterRoutes(app *fiber.App, handler *Handler, collectors *Collectors) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(collectors.Registry, promhttp.HandlerOpts{})))

	app.Get("/api/metrics/overview", handler.GetOverview)
	app.Get("/ui/metrics/overview", handler.GetOverview)
}
